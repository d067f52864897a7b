package services

import (
	"context"
	"errors"

	"medtrack/internal/apperrors"
	"medtrack/internal/database"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SampleService keeps one sample row per (doctor, product); issuing more of
// the same product to the same doctor is an update of quantity.
type SampleService struct {
	base
}

func withSampleRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Doctor").Preload("Product")
}

func (s *SampleService) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.Sample, error) {
	var samples []models.Sample
	q := scope(withSampleRefs(s.conn(ctx))).Order("date_issued desc, id desc")
	return samples, dbError(q.Find(&samples).Error, "list samples")
}

func (s *SampleService) List(ctx context.Context) ([]models.Sample, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *SampleService) Get(ctx context.Context, id uint) (*models.Sample, error) {
	var sample models.Sample
	if err := findByID(withSampleRefs(s.conn(ctx)), &sample, id, "Sample"); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (s *SampleService) ByDoctor(ctx context.Context, doctorID uint) ([]models.Sample, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("doctor_id = ?", doctorID) })
}

func (s *SampleService) ByProduct(ctx context.Context, productID uint) ([]models.Sample, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("product_id = ?", productID) })
}

func (s *SampleService) ByVisit(ctx context.Context, visitID uint) ([]models.Sample, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("visit_id = ?", visitID) })
}

func (s *SampleService) ByDate(ctx context.Context, date models.Date) ([]models.Sample, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("date_issued = ?", date) })
}

func (s *SampleService) ByDateRange(ctx context.Context, from, to models.Date) ([]models.Sample, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("date_issued BETWEEN ? AND ?", from, to)
	})
}

func (s *SampleService) ByDoctorDateRange(ctx context.Context, doctorID uint, from, to models.Date) ([]models.Sample, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("doctor_id = ? AND date_issued BETWEEN ? AND ?", doctorID, from, to)
	})
}

func (s *SampleService) ByProductDateRange(ctx context.Context, productID uint, from, to models.Date) ([]models.Sample, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("product_id = ? AND date_issued BETWEEN ? AND ?", productID, from, to)
	})
}

// ByDoctorAndProduct returns the single sample row for the pair.
func (s *SampleService) ByDoctorAndProduct(ctx context.Context, doctorID, productID uint) (*models.Sample, error) {
	var sample models.Sample
	err := withSampleRefs(s.conn(ctx)).
		Where("doctor_id = ? AND product_id = ?", doctorID, productID).
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Sample not found for doctor id: %d and product id: %d", doctorID, productID)
	}
	if err != nil {
		return nil, dbError(err, "load sample")
	}
	return &sample, nil
}

func (s *SampleService) TotalQuantityForProduct(ctx context.Context, productID uint) (int64, error) {
	total, err := database.SampleQuantity(s.conn(ctx), "product_id", productID)
	return total, dbError(err, "sum sample quantity")
}

func (s *SampleService) TotalQuantityForDoctor(ctx context.Context, doctorID uint) (int64, error) {
	total, err := database.SampleQuantity(s.conn(ctx), "doctor_id", doctorID)
	return total, dbError(err, "sum sample quantity")
}

// TopProducts ranks products by summed sample quantity, ties by product id.
func (s *SampleService) TopProducts(ctx context.Context, limit int) ([]database.ProductQuantity, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := database.TopSampleProducts(s.conn(ctx), limit)
	return rows, dbError(err, "rank sample products")
}

func (s *SampleService) Create(ctx context.Context, req dto.SampleRequest) (*models.Sample, error) {
	sample := models.Sample{
		DoctorID:  req.DoctorID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		VisitID:   req.VisitID,
	}
	if req.DateIssued != nil {
		sample.DateIssued = *req.DateIssued
	}
	if err := s.checkDateIssued(sample.DateIssued); err != nil {
		return nil, err
	}
	if sample.Quantity < 1 {
		return nil, apperrors.Validation("Quantity must be at least 1")
	}

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := checkSamplePair(tx, sample.DoctorID, sample.ProductID, 0); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Doctor{}, sample.DoctorID, "Doctor"); err != nil {
			return err
		}
		if err := requireExists(tx, &models.Product{}, sample.ProductID, "Product"); err != nil {
			return err
		}
		if sample.VisitID != nil {
			if err := checkVisitDoctor(tx, *sample.VisitID, sample.DoctorID); err != nil {
				return err
			}
		}
		return saveSample(tx.Omit(clause.Associations).Create(&sample).Error, sample)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sample.ID)
}

// Update patches the sample and re-checks the visit against the resulting doctor.
func (s *SampleService) Update(ctx context.Context, id uint, req dto.SampleUpdateRequest) (*models.Sample, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var sample models.Sample
		if err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &sample, id, "Sample"); err != nil {
			return err
		}

		if req.DoctorID != nil && *req.DoctorID != sample.DoctorID {
			if err := requireExists(tx, &models.Doctor{}, *req.DoctorID, "Doctor"); err != nil {
				return err
			}
			sample.DoctorID = *req.DoctorID
		}
		if req.ProductID != nil && *req.ProductID != sample.ProductID {
			if err := requireExists(tx, &models.Product{}, *req.ProductID, "Product"); err != nil {
				return err
			}
			sample.ProductID = *req.ProductID
		}
		if req.Quantity != nil {
			if *req.Quantity < 1 {
				return apperrors.Validation("Quantity must be at least 1")
			}
			sample.Quantity = *req.Quantity
		}
		if req.DateIssued != nil {
			if err := s.checkDateIssued(*req.DateIssued); err != nil {
				return err
			}
			sample.DateIssued = *req.DateIssued
		}
		if req.VisitID != nil {
			sample.VisitID = req.VisitID
		}
		if sample.VisitID != nil {
			if err := checkVisitDoctor(tx, *sample.VisitID, sample.DoctorID); err != nil {
				return err
			}
		}
		if err := checkSamplePair(tx, sample.DoctorID, sample.ProductID, sample.ID); err != nil {
			return err
		}
		return saveSample(tx.Omit(clause.Associations).Save(&sample).Error, sample)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *SampleService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Sample{}, id, "Sample"); err != nil {
			return err
		}
		return deleteError(tx.Delete(&models.Sample{}, id).Error, "Sample")
	})
}

func (s *SampleService) checkDateIssued(d models.Date) error {
	if d.IsZero() {
		return apperrors.Validation("Date issued is required")
	}
	if d.After(s.today()) {
		return apperrors.BadRequest("Date issued cannot be in the future")
	}
	return nil
}

func checkSamplePair(tx *gorm.DB, doctorID, productID, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Sample{}).Where("doctor_id = ? AND product_id = ?", doctorID, productID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check sample")
	}
	if n > 0 {
		return duplicateSample(doctorID, productID)
	}
	return nil
}

func saveSample(err error, s models.Sample) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateSample(s.DoctorID, s.ProductID)
	}
	return dbError(err, "save sample")
}

func duplicateSample(doctorID, productID uint) error {
	return apperrors.BadRequest("Sample with doctor id '%d' and product id '%d' already exists", doctorID, productID)
}

// checkVisitDoctor requires the visit to exist and belong to doctorID.
func checkVisitDoctor(tx *gorm.DB, visitID, doctorID uint) error {
	var visit models.Visit
	if err := findByID(tx, &visit, visitID, "Visit"); err != nil {
		return err
	}
	if visit.DoctorID != doctorID {
		return apperrors.BadRequest("Visit does not belong to the specified doctor")
	}
	return nil
}
