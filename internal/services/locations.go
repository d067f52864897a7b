package services

import (
	"context"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"gorm.io/gorm"
)

// MaxBulkLocations caps one bulk create call.
const MaxBulkLocations = 50

type LocationService struct {
	base
	defaultCountry string
}

func (s *LocationService) List(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	q := s.conn(ctx).Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var locations []models.Location
	return locations, dbError(q.Find(&locations).Error, "list locations")
}

func (s *LocationService) Get(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	if err := findByID(s.conn(ctx), &location, id, "Location"); err != nil {
		return nil, err
	}
	return &location, nil
}

// ByCity matches the city case-insensitively.
func (s *LocationService) ByCity(ctx context.Context, city string) ([]models.Location, error) {
	var locations []models.Location
	err := s.conn(ctx).
		Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(city))).
		Order("name").
		Find(&locations).Error
	return locations, dbError(err, "list locations")
}

// Search matches q as a case-insensitive substring of name or city.
func (s *LocationService) Search(ctx context.Context, q string, activeOnly bool) ([]models.Location, error) {
	pattern := likePattern(q)
	query := s.conn(ctx).Where("(LOWER(name) LIKE ? OR LOWER(city) LIKE ?)", pattern, pattern)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var locations []models.Location
	return locations, dbError(query.Order("name").Find(&locations).Error, "search locations")
}

func (s *LocationService) Create(ctx context.Context, req dto.LocationRequest) (*models.Location, error) {
	var location models.Location
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		l, err := s.insert(tx, req)
		if err != nil {
			return err
		}
		location = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &location, nil
}

// CreateBulk inserts 1..MaxBulkLocations locations atomically.
func (s *LocationService) CreateBulk(ctx context.Context, reqs []dto.LocationRequest) ([]models.Location, error) {
	if len(reqs) == 0 {
		return nil, apperrors.BadRequest("At least one location is required")
	}
	if len(reqs) > MaxBulkLocations {
		return nil, apperrors.BadRequest("Cannot add more than %d locations at once", MaxBulkLocations)
	}

	created := make([]models.Location, 0, len(reqs))
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		for _, req := range reqs {
			l, err := s.insert(tx, req)
			if err != nil {
				return err
			}
			created = append(created, *l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *LocationService) insert(tx *gorm.DB, req dto.LocationRequest) (*models.Location, error) {
	location := models.Location{
		Name:     strings.TrimSpace(req.Name),
		City:     strings.TrimSpace(req.City),
		State:    req.State,
		Country:  req.Country,
		Address:  req.Address,
		IsActive: true,
	}
	if location.Name == "" || location.City == "" {
		return nil, apperrors.Validation("Location name and city are required")
	}
	if location.Country == "" {
		location.Country = s.defaultCountry
	}
	if req.IsActive != nil {
		location.IsActive = *req.IsActive
	}
	if err := checkLocationName(tx, location.Name, 0); err != nil {
		return nil, err
	}
	if err := tx.Create(&location).Error; err != nil {
		return nil, dbError(err, "create location")
	}
	return &location, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, req dto.LocationUpdateRequest) (*models.Location, error) {
	var location models.Location
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := findByID(tx, &location, id, "Location"); err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.Validation("Location name cannot be blank")
			}
			if err := checkLocationName(tx, name, id); err != nil {
				return err
			}
			location.Name = name
		}
		if req.City != nil {
			city := strings.TrimSpace(*req.City)
			if city == "" {
				return apperrors.Validation("Location city cannot be blank")
			}
			location.City = city
		}
		if req.State != nil {
			location.State = *req.State
		}
		if req.Country != nil {
			location.Country = *req.Country
		}
		if req.Address != nil {
			location.Address = *req.Address
		}
		if req.IsActive != nil {
			location.IsActive = *req.IsActive
		}
		return dbError(tx.Save(&location).Error, "update location")
	})
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (s *LocationService) SetActive(ctx context.Context, id uint, active bool) (*models.Location, error) {
	return s.Update(ctx, id, dto.LocationUpdateRequest{IsActive: &active})
}

// Delete drops the location from every user's set before removing it.
func (s *LocationService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Location{}, id, "Location"); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_locations WHERE location_id = ?", id).Error; err != nil {
			return dbError(err, "unassign location")
		}
		return deleteError(tx.Delete(&models.Location{}, id).Error, "Location")
	})
}

// checkLocationName enforces case-insensitive name uniqueness.
func checkLocationName(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Location{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check location name")
	}
	if n > 0 {
		return apperrors.BadRequest("Location with name '%s' already exists", name)
	}
	return nil
}
