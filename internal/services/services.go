// Package services implements the MedTrack business operations on top of gorm.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"medtrack/internal/apperrors"
	"medtrack/internal/models"

	"gorm.io/gorm"
)

// EventPublisher receives domain events after a successful commit.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) {}

// Services bundles every service over one database.
type Services struct {
	Auth      *AuthService
	Users     *UserService
	Locations *LocationService
	Doctors   *DoctorService
	Products  *ProductService
	Visits    *VisitService
	Samples   *SampleService
	Orders    *OrderService
	Dashboard *DashboardService
}

type Options struct {
	Now            func() time.Time
	Events         EventPublisher
	Cache          StatsCache
	CacheTTL       time.Duration
	DefaultCountry string
}

func New(db *gorm.DB, tokens TokenIssuer, opts Options) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Events == nil {
		opts.Events = nopPublisher{}
	}
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = "India"
	}
	b := base{db: db, now: opts.Now}

	users := &UserService{base: b}
	return &Services{
		Auth:      &AuthService{users: users, tokens: tokens},
		Users:     users,
		Locations: &LocationService{base: b, defaultCountry: opts.DefaultCountry},
		Doctors:   &DoctorService{base: b},
		Products:  &ProductService{base: b},
		Visits:    &VisitService{base: b, events: opts.Events},
		Samples:   &SampleService{base: b},
		Orders:    &OrderService{base: b, events: opts.Events},
		Dashboard: &DashboardService{base: b, cache: opts.Cache, ttl: opts.CacheTTL},
	}
}

type base struct {
	db  *gorm.DB
	now func() time.Time
}

func (b base) conn(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// today is the server's calendar date.
func (b base) today() models.Date {
	return models.NewDate(b.now())
}

// inTx runs fn in one transaction. Errors that are not already typed become Internal.
func (b base) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := b.db.WithContext(ctx).Transaction(fn)
	if err != nil && !isAppError(err) {
		return apperrors.Internal(err, "transaction failed")
	}
	return err
}

func isAppError(err error) bool {
	var e *apperrors.Error
	return errors.As(err, &e)
}

// findByID loads one row or returns NotFound naming the entity.
func findByID(tx *gorm.DB, dest any, id uint, label string) error {
	err := tx.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("%s not found with id: %d", label, id)
	}
	if err != nil {
		return apperrors.Internal(err, "failed to load %s", strings.ToLower(label))
	}
	return nil
}

// exists reports whether a row with id exists in model's table.
func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireExists(tx *gorm.DB, model any, id uint, label string) error {
	ok, err := exists(tx, model, id)
	if err != nil {
		return apperrors.Internal(err, "failed to load %s", strings.ToLower(label))
	}
	if !ok {
		return apperrors.NotFound("%s not found with id: %d", label, id)
	}
	return nil
}

func dbError(err error, what string) error {
	if err == nil {
		return nil
	}
	return apperrors.Internal(err, "failed to %s", what)
}

// deleteError reports foreign key failures as a client error.
func deleteError(err error, label string) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.BadRequest("%s is still referenced by other records", label)
	}
	return dbError(err, "delete "+strings.ToLower(label))
}

func checkRange(from, to models.Date) error {
	if from.After(to) {
		return apperrors.BadRequest("Start date cannot be after end date")
	}
	return nil
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
