package services

import (
	"context"
	"errors"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService struct {
	base
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	return products, dbError(s.conn(ctx).Order("name").Find(&products).Error, "list products")
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := findByID(s.conn(ctx), &product, id, "Product"); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).
		Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(category))).
		Order("name").
		Find(&products).Error
	return products, dbError(err, "list products")
}

func (s *ProductService) Search(ctx context.Context, name string) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).
		Where("LOWER(name) LIKE ?", likePattern(name)).
		Order("name").
		Find(&products).Error
	return products, dbError(err, "search products")
}

func (s *ProductService) Create(ctx context.Context, req dto.ProductRequest) (*models.Product, error) {
	product := models.Product{
		Name:          strings.TrimSpace(req.Name),
		Category:      req.Category,
		Manufacturer:  req.Manufacturer,
		Description:   req.Description,
		StockQuantity: req.StockQuantity,
	}
	if req.Price != nil {
		product.Price = req.Price.Round(2)
	}
	if err := validatePrice(product.Price); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := checkProductName(tx, product.Name, 0); err != nil {
			return err
		}
		return saveProduct(tx.Create(&product).Error, product.Name)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, req dto.ProductUpdateRequest) (*models.Product, error) {
	var product models.Product
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := findByID(tx, &product, id, "Product"); err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.Validation("Product name cannot be blank")
			}
			if err := checkProductName(tx, name, id); err != nil {
				return err
			}
			product.Name = name
		}
		if req.Category != nil {
			product.Category = *req.Category
		}
		if req.Manufacturer != nil {
			product.Manufacturer = *req.Manufacturer
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.Price != nil {
			if err := validatePrice(*req.Price); err != nil {
				return err
			}
			product.Price = req.Price.Round(2)
		}
		if req.StockQuantity != nil {
			product.StockQuantity = *req.StockQuantity
		}
		return saveProduct(tx.Save(&product).Error, product.Name)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Product{}, id, "Product"); err != nil {
			return err
		}
		return deleteError(tx.Delete(&models.Product{}, id).Error, "Product")
	})
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.Validation("Price cannot be negative")
	}
	return nil
}

func checkProductName(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Product{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return dbError(err, "check product")
	}
	if n > 0 {
		return apperrors.BadRequest("Product with name '%s' already exists", name)
	}
	return nil
}

func saveProduct(err error, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.BadRequest("Product with name '%s' already exists", name)
	}
	return dbError(err, "save product")
}
