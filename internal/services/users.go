package services

import (
	"context"
	"errors"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/auth"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	base
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).Preload("Locations").Order("id").Find(&users).Error
	return users, dbError(err, "list users")
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := findByID(s.conn(ctx).Preload("Locations"), &user, id, "User"); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches the stored email exactly.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("User not found with email: %s", email)
	}
	if err != nil {
		return nil, dbError(err, "load user")
	}
	return &user, nil
}

func (s *UserService) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = s.conn(ctx).Preload("Locations").Where("role = ?", r).Order("id").Find(&users).Error
	return users, dbError(err, "list users")
}

// Create hashes the password, defaults role to REP and resolves location ids.
func (s *UserService) Create(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	role := models.RoleRep
	if req.Role != "" {
		r, err := parseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}
	return s.create(ctx, req, role)
}

func (s *UserService) create(ctx context.Context, req dto.RegisterRequest, role models.Role) (*models.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         role,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		if err := s.checkEmailFree(tx, user.Email, 0); err != nil {
			return err
		}
		locations, err := resolveLocations(tx, req.LocationIDs)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.BadRequest("Email already exists: %s", user.Email)
			}
			return dbError(err, "create user")
		}
		if len(locations) > 0 {
			if err := tx.Model(&user).Association("Locations").Append(locations); err != nil {
				return dbError(err, "assign locations")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

// Update patches the supplied fields. A non-nil LocationIDs replaces the set.
func (s *UserService) Update(ctx context.Context, id uint, req dto.UserUpdateRequest) (*models.User, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &user, id, "User"); err != nil {
			return err
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil && *req.Email != user.Email {
			email := strings.TrimSpace(*req.Email)
			if err := s.checkEmailFree(tx, email, user.ID); err != nil {
				return err
			}
			user.Email = email
		}
		if req.Role != nil {
			r, err := parseRole(*req.Role)
			if err != nil {
				return err
			}
			user.Role = r
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := hashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if err := tx.Omit(clause.Associations).Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.BadRequest("Email already exists: %s", user.Email)
			}
			return dbError(err, "update user")
		}

		if req.LocationIDs != nil {
			return replaceLocations(tx, &user, *req.LocationIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.User{}, id, "User"); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_locations WHERE user_id = ?", id).Error; err != nil {
			return dbError(err, "unassign locations")
		}
		return deleteError(tx.Delete(&models.User{}, id).Error, "User")
	})
}

// SetActive flips the active flag; history stays intact.
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := findByID(tx, &user, id, "User"); err != nil {
			return err
		}
		user.IsActive = active
		return dbError(tx.Omit(clause.Associations).Save(&user).Error, "update user")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AssignLocations replaces the user's location set wholesale.
func (s *UserService) AssignLocations(ctx context.Context, id uint, locationIDs []uint) (*models.User, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := findByID(tx, &user, id, "User"); err != nil {
			return err
		}
		return replaceLocations(tx, &user, locationIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) AddLocation(ctx context.Context, id, locationID uint) (*models.User, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := findByID(tx, &user, id, "User"); err != nil {
			return err
		}
		var location models.Location
		if err := findByID(tx, &location, locationID, "Location"); err != nil {
			return err
		}
		assigned, err := hasLocation(tx, id, locationID)
		if err != nil || assigned {
			return dbError(err, "check location")
		}
		return dbError(tx.Model(&user).Association("Locations").Append(&location), "assign location")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) RemoveLocation(ctx context.Context, id, locationID uint) (*models.User, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := findByID(tx, &user, id, "User"); err != nil {
			return err
		}
		var location models.Location
		if err := findByID(tx, &location, locationID, "Location"); err != nil {
			return err
		}
		return dbError(tx.Model(&user).Association("Locations").Delete(&location), "unassign location")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) Locations(ctx context.Context, id uint) ([]models.Location, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Locations, nil
}

// ByLocation lists users whose assigned set contains the location.
func (s *UserService) ByLocation(ctx context.Context, locationID uint) ([]models.User, error) {
	db := s.conn(ctx)
	if err := requireExists(db, &models.Location{}, locationID, "Location"); err != nil {
		return nil, err
	}
	var users []models.User
	err := db.Preload("Locations").
		Joins("JOIN user_locations ON user_locations.user_id = users.id").
		Where("user_locations.location_id = ?", locationID).
		Order("users.id").
		Find(&users).Error
	return users, dbError(err, "list users")
}

func (s *UserService) checkEmailFree(tx *gorm.DB, email string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check email")
	}
	if n > 0 {
		return apperrors.BadRequest("Email already exists: %s", email)
	}
	return nil
}

// resolveLocations loads every id or fails with NotFound on the first unknown one.
func resolveLocations(tx *gorm.DB, ids []uint) ([]models.Location, error) {
	locations := make([]models.Location, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		var location models.Location
		if err := findByID(tx, &location, id, "Location"); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

func replaceLocations(tx *gorm.DB, user *models.User, ids []uint) error {
	locations, err := resolveLocations(tx, ids)
	if err != nil {
		return err
	}
	assoc := tx.Model(user).Association("Locations")
	if len(locations) == 0 {
		return dbError(assoc.Clear(), "clear locations")
	}
	if err := assoc.Replace(locations); err != nil {
		return dbError(err, "replace locations")
	}
	return nil
}

func hasLocation(tx *gorm.DB, userID, locationID uint) (bool, error) {
	var n int64
	err := tx.Table("user_locations").
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&n).Error
	return n > 0, err
}

func parseRole(s string) (models.Role, error) {
	r := models.Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperrors.BadRequest("Invalid role: %s", s)
	}
	return r, nil
}

// hashPassword reports passwords bcrypt cannot take as a client error.
func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.Validation("Password must be at most 72 bytes")
	}
	if err != nil {
		return "", apperrors.Internal(err, "failed to hash password")
	}
	return hash, nil
}
