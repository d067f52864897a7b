package services

import (
	"context"
	"errors"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventVisitStarted = "visit.started"
	EventVisitEnded   = "visit.ended"
)

// VisitService owns the visit lifecycle: IN_PROGRESS -> COMPLETED | CANCELLED.
//
// A user has at most one IN_PROGRESS visit. Start checks for one inside the
// transaction and the unique index on visits.active_user_id rejects the loser
// of a concurrent race.
type VisitService struct {
	base
	events EventPublisher
}

func withVisitRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Doctor").Preload("Location")
}

func (s *VisitService) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.Visit, error) {
	var visits []models.Visit
	q := scope(withVisitRefs(s.conn(ctx))).Order("visit_date desc, id desc")
	return visits, dbError(q.Find(&visits).Error, "list visits")
}

func (s *VisitService) List(ctx context.Context) ([]models.Visit, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *VisitService) Get(ctx context.Context, id uint) (*models.Visit, error) {
	var visit models.Visit
	if err := findByID(withVisitRefs(s.conn(ctx)), &visit, id, "Visit"); err != nil {
		return nil, err
	}
	return &visit, nil
}

func (s *VisitService) ByUser(ctx context.Context, userID uint) ([]models.Visit, error) {
	if err := requireExists(s.conn(ctx), &models.User{}, userID, "User"); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) })
}

func (s *VisitService) ByDoctor(ctx context.Context, doctorID uint) ([]models.Visit, error) {
	if err := requireExists(s.conn(ctx), &models.Doctor{}, doctorID, "Doctor"); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("doctor_id = ?", doctorID) })
}

func (s *VisitService) ByLocation(ctx context.Context, locationID uint) ([]models.Visit, error) {
	if err := requireExists(s.conn(ctx), &models.Location{}, locationID, "Location"); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("location_id = ?", locationID) })
}

func (s *VisitService) ByDate(ctx context.Context, date models.Date) ([]models.Visit, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("visit_date = ?", date) })
}

func (s *VisitService) ByDateRange(ctx context.Context, from, to models.Date) ([]models.Visit, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("visit_date BETWEEN ? AND ?", from, to)
	})
}

func (s *VisitService) ByUserDateRange(ctx context.Context, userID uint, from, to models.Date) ([]models.Visit, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND visit_date BETWEEN ? AND ?", userID, from, to)
	})
}

func (s *VisitService) ByDoctorDateRange(ctx context.Context, doctorID uint, from, to models.Date) ([]models.Visit, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("doctor_id = ? AND visit_date BETWEEN ? AND ?", doctorID, from, to)
	})
}

func (s *VisitService) ByStatus(ctx context.Context, status string) ([]models.Visit, error) {
	st, err := parseVisitStatus(status)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", st) })
}

// ActiveByUser returns the user's IN_PROGRESS visits (zero or one).
func (s *VisitService) ActiveByUser(ctx context.Context, userID uint) ([]models.Visit, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND status = ?", userID, models.VisitInProgress)
	})
}

// Create records a visit after the fact. Status defaults to COMPLETED.
func (s *VisitService) Create(ctx context.Context, req dto.VisitRequest) (*models.Visit, error) {
	visit := models.Visit{
		UserID:       req.UserID,
		DoctorID:     req.DoctorID,
		LocationID:   req.LocationID,
		CheckInTime:  req.CheckInTime.Ptr(),
		CheckOutTime: req.CheckOutTime.Ptr(),
		Status:       models.VisitCompleted,
		Notes:        req.Notes,
	}
	if req.VisitDate != nil {
		visit.VisitDate = *req.VisitDate
	}
	if req.Status != "" {
		st, err := parseVisitStatus(req.Status)
		if err != nil {
			return nil, err
		}
		visit.Status = st
	}
	if err := s.checkVisitDate(visit.VisitDate); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := lockUser(tx, visit.UserID); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Doctor{}, visit.DoctorID, "Doctor"); err != nil {
			return err
		}
		if visit.LocationID != nil {
			if err := checkLocationAccess(tx, visit.UserID, *visit.LocationID); err != nil {
				return err
			}
		}
		if err := s.settleTimes(tx, &visit); err != nil {
			return err
		}
		return insertVisit(tx, &visit)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, visit.ID)
}

// Start opens a live visit for today at one of the user's locations.
func (s *VisitService) Start(ctx context.Context, req dto.StartVisitRequest) (*models.Visit, error) {
	now := s.now()
	locationID := req.LocationID
	visit := models.Visit{
		UserID:      req.UserID,
		DoctorID:    req.DoctorID,
		LocationID:  &locationID,
		VisitDate:   models.NewDate(now),
		CheckInTime: &now,
		Status:      models.VisitInProgress,
		Notes:       req.Notes,
	}

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := lockUser(tx, req.UserID); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Doctor{}, req.DoctorID, "Doctor"); err != nil {
			return err
		}
		if err := checkLocationAccess(tx, req.UserID, req.LocationID); err != nil {
			return err
		}
		if err := checkNoActiveVisit(tx, req.UserID, 0); err != nil {
			return err
		}
		return insertVisit(tx, &visit)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, EventVisitStarted, map[string]any{"visitId": visit.ID, "userId": visit.UserID})
	return s.Get(ctx, visit.ID)
}

// End completes an IN_PROGRESS visit, appending notes on a new line.
func (s *VisitService) End(ctx context.Context, id uint, notes *string) (*models.Visit, error) {
	var visit models.Visit
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &visit, id, "Visit"); err != nil {
			return err
		}
		if visit.Status != models.VisitInProgress {
			return apperrors.BadRequest("Visit is not in progress. Current status: %s", visit.Status)
		}

		checkOut := s.now()
		if visit.CheckInTime == nil {
			checkIn := checkOut
			visit.CheckInTime = &checkIn
		} else if checkOut.Before(*visit.CheckInTime) {
			checkOut = *visit.CheckInTime
		}
		visit.CheckOutTime = &checkOut
		visit.Status = models.VisitCompleted
		if notes != nil && strings.TrimSpace(*notes) != "" {
			visit.Notes = appendNotes(visit.Notes, *notes)
		}
		return dbError(tx.Omit(clause.Associations).Save(&visit).Error, "end visit")
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, EventVisitEnded, map[string]any{"visitId": visit.ID, "userId": visit.UserID})
	return s.Get(ctx, id)
}

// Update patches the supplied fields. A changed location is checked for
// existence only, not against the user's assigned set.
func (s *VisitService) Update(ctx context.Context, id uint, req dto.VisitUpdateRequest) (*models.Visit, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var visit models.Visit
		if err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &visit, id, "Visit"); err != nil {
			return err
		}
		previous := visit.Status

		if req.UserID != nil && *req.UserID != visit.UserID {
			if err := lockUser(tx, *req.UserID); err != nil {
				return err
			}
			visit.UserID = *req.UserID
		}
		if req.DoctorID != nil && *req.DoctorID != visit.DoctorID {
			if err := requireExists(tx, &models.Doctor{}, *req.DoctorID, "Doctor"); err != nil {
				return err
			}
			visit.DoctorID = *req.DoctorID
		}
		if req.LocationID != nil {
			if err := requireExists(tx, &models.Location{}, *req.LocationID, "Location"); err != nil {
				return err
			}
			visit.LocationID = req.LocationID
		}
		if req.VisitDate != nil {
			if err := s.checkVisitDate(*req.VisitDate); err != nil {
				return err
			}
			visit.VisitDate = *req.VisitDate
		}
		if req.CheckInTime != nil {
			visit.CheckInTime = req.CheckInTime.Ptr()
		}
		if req.CheckOutTime != nil {
			visit.CheckOutTime = req.CheckOutTime.Ptr()
		}
		if req.Status != nil {
			st, err := parseVisitStatus(*req.Status)
			if err != nil {
				return err
			}
			visit.Status = st
		}
		if req.Notes != nil {
			visit.Notes = *req.Notes
		}

		if visit.Status == models.VisitCompleted && previous == models.VisitInProgress && visit.CheckOutTime == nil {
			now := s.now()
			visit.CheckOutTime = &now
		}
		if err := s.settleTimes(tx, &visit); err != nil {
			return err
		}
		return saveVisit(tx, &visit)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the visit after unlinking its samples and orders.
func (s *VisitService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Visit{}, id, "Visit"); err != nil {
			return err
		}
		if err := tx.Model(&models.Sample{}).Where("visit_id = ?", id).Update("visit_id", nil).Error; err != nil {
			return dbError(err, "unlink samples")
		}
		if err := tx.Model(&models.Order{}).Where("visit_id = ?", id).Update("visit_id", nil).Error; err != nil {
			return dbError(err, "unlink orders")
		}
		return deleteError(tx.Delete(&models.Visit{}, id).Error, "Visit")
	})
}

func (s *VisitService) checkVisitDate(d models.Date) error {
	if d.IsZero() {
		return apperrors.Validation("Visit date is required")
	}
	if d.After(s.today()) {
		return apperrors.BadRequest("Visit date cannot be in the future")
	}
	return nil
}

// settleTimes keeps check-in/check-out consistent with the status and, for
// IN_PROGRESS, makes sure no other visit of the user is active.
func (s *VisitService) settleTimes(tx *gorm.DB, v *models.Visit) error {
	switch v.Status {
	case models.VisitInProgress:
		if err := checkNoActiveVisit(tx, v.UserID, v.ID); err != nil {
			return err
		}
		if v.CheckInTime == nil {
			now := s.now()
			v.CheckInTime = &now
		}
		v.CheckOutTime = nil
	case models.VisitCompleted:
		if v.CheckInTime != nil && v.CheckOutTime != nil && v.CheckOutTime.Before(*v.CheckInTime) {
			return apperrors.BadRequest("Check-out time cannot be before check-in time")
		}
	}
	return nil
}

func lockUser(tx *gorm.DB, userID uint) error {
	var user models.User
	return findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &user, userID, "User")
}

func checkLocationAccess(tx *gorm.DB, userID, locationID uint) error {
	if err := requireExists(tx, &models.Location{}, locationID, "Location"); err != nil {
		return err
	}
	ok, err := hasLocation(tx, userID, locationID)
	if err != nil {
		return dbError(err, "check location access")
	}
	if !ok {
		return apperrors.BadRequest("User does not have access to location with id: %d", locationID)
	}
	return nil
}

func checkNoActiveVisit(tx *gorm.DB, userID, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Visit{}).Where("user_id = ? AND status = ?", userID, models.VisitInProgress)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check active visits")
	}
	if n > 0 {
		return errActiveVisit()
	}
	return nil
}

func errActiveVisit() error {
	return apperrors.BadRequest("User already has an active visit. Please complete it before starting a new one.")
}

func insertVisit(tx *gorm.DB, v *models.Visit) error {
	err := tx.Omit(clause.Associations).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errActiveVisit()
	}
	return dbError(err, "create visit")
}

func saveVisit(tx *gorm.DB, v *models.Visit) error {
	err := tx.Omit(clause.Associations).Save(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errActiveVisit()
	}
	return dbError(err, "update visit")
}

func appendNotes(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}

func parseVisitStatus(s string) (models.VisitStatus, error) {
	st := models.VisitStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperrors.BadRequest("Invalid visit status: %s", s)
	}
	return st, nil
}
