// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role, locations ...models.Location) models.User {
	t.Helper()
	u := models.User{
		Name:         name,
		Email:        uuid.NewString()[:8] + "@medtrack.test",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		Locations:    locations,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateLocation(t *testing.T, db *gorm.DB, name, city string) models.Location {
	t.Helper()
	l := models.Location{Name: name, City: city, Country: "India", IsActive: true}
	require.NoError(t, db.Create(&l).Error)
	return l
}

func CreateDoctor(t *testing.T, db *gorm.DB, name, hospital string) models.Doctor {
	t.Helper()
	d := models.Doctor{Name: name, Hospital: hospital, Specialty: "Cardiology"}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func CreateProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		Category:      "Tablet",
		Manufacturer:  "Acme Pharma",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 100,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
