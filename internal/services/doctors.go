package services

import (
	"context"
	"errors"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"gorm.io/gorm"
)

type DoctorService struct {
	base
}

func (s *DoctorService) List(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	return doctors, dbError(s.conn(ctx).Order("name").Find(&doctors).Error, "list doctors")
}

func (s *DoctorService) Get(ctx context.Context, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := findByID(s.conn(ctx), &doctor, id, "Doctor"); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *DoctorService) BySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := s.conn(ctx).
		Where("LOWER(specialty) = ?", strings.ToLower(strings.TrimSpace(specialty))).
		Order("name").
		Find(&doctors).Error
	return doctors, dbError(err, "list doctors")
}

func (s *DoctorService) ByHospital(ctx context.Context, hospital string) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := s.conn(ctx).
		Where("LOWER(hospital) = ?", strings.ToLower(strings.TrimSpace(hospital))).
		Order("name").
		Find(&doctors).Error
	return doctors, dbError(err, "list doctors")
}

// Search matches name as a case-insensitive substring.
func (s *DoctorService) Search(ctx context.Context, name string) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := s.conn(ctx).
		Where("LOWER(name) LIKE ?", likePattern(name)).
		Order("name").
		Find(&doctors).Error
	return doctors, dbError(err, "search doctors")
}

func (s *DoctorService) Create(ctx context.Context, req dto.DoctorRequest) (*models.Doctor, error) {
	doctor := models.Doctor{
		Name:      strings.TrimSpace(req.Name),
		Specialty: req.Specialty,
		Hospital:  strings.TrimSpace(req.Hospital),
		Phone:     req.Phone,
	}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := checkDoctorKey(tx, doctor.Name, doctor.Hospital, 0); err != nil {
			return err
		}
		return saveDoctor(tx.Create(&doctor).Error, doctor)
	})
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *DoctorService) Update(ctx context.Context, id uint, req dto.DoctorUpdateRequest) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := findByID(tx, &doctor, id, "Doctor"); err != nil {
			return err
		}
		if req.Name != nil {
			doctor.Name = strings.TrimSpace(*req.Name)
			if doctor.Name == "" {
				return apperrors.Validation("Doctor name cannot be blank")
			}
		}
		if req.Specialty != nil {
			doctor.Specialty = *req.Specialty
		}
		if req.Hospital != nil {
			doctor.Hospital = strings.TrimSpace(*req.Hospital)
		}
		if req.Phone != nil {
			doctor.Phone = *req.Phone
		}
		if err := checkDoctorKey(tx, doctor.Name, doctor.Hospital, id); err != nil {
			return err
		}
		return saveDoctor(tx.Save(&doctor).Error, doctor)
	})
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *DoctorService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Doctor{}, id, "Doctor"); err != nil {
			return err
		}
		return deleteError(tx.Delete(&models.Doctor{}, id).Error, "Doctor")
	})
}

func checkDoctorKey(tx *gorm.DB, name, hospital string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Doctor{}).Where("name = ? AND hospital = ?", name, hospital)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check doctor")
	}
	if n > 0 {
		return duplicateDoctor(name, hospital)
	}
	return nil
}

func saveDoctor(err error, d models.Doctor) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateDoctor(d.Name, d.Hospital)
	}
	return dbError(err, "save doctor")
}

func duplicateDoctor(name, hospital string) error {
	return apperrors.BadRequest("Doctor with name '%s' already exists at hospital '%s'", name, hospital)
}
