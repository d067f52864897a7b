// Package dto holds the JSON request and response records of the HTTP API.
package dto

import (
	"medtrack/internal/models"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,emailaddr"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is also the body of POST /api/users.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,emailaddr"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	IsActive    *bool  `json:"isActive"`
	LocationIDs []uint `json:"locationIds"`
}

// UserUpdateRequest patches a user. A present locationIds replaces the set.
type UserUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,emailaddr"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
	Phone       *string `json:"phone"`
	IsActive    *bool   `json:"isActive"`
	LocationIDs *[]uint `json:"locationIds"`
}

type LocationRequest struct {
	Name     string `json:"name" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Address  string `json:"address"`
	IsActive *bool  `json:"isActive"`
}

type BulkLocationRequest struct {
	Locations []LocationRequest `json:"locations" binding:"required,dive"`
}

type LocationUpdateRequest struct {
	Name     *string `json:"name"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Country  *string `json:"country"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"isActive"`
}

type DoctorRequest struct {
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty"`
	Hospital  string `json:"hospital"`
	Phone     string `json:"phone"`
}

type DoctorUpdateRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Hospital  *string `json:"hospital"`
	Phone     *string `json:"phone"`
}

type ProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Category      string           `json:"category"`
	Manufacturer  string           `json:"manufacturer"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int              `json:"stockQuantity" binding:"min=0"`
}

type ProductUpdateRequest struct {
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	Manufacturer  *string          `json:"manufacturer"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stockQuantity" binding:"omitempty,min=0"`
}

// VisitRequest records a visit after the fact.
type VisitRequest struct {
	UserID       uint         `json:"userId" binding:"required"`
	DoctorID     uint         `json:"doctorId" binding:"required"`
	LocationID   *uint        `json:"locationId"`
	VisitDate    *models.Date `json:"visitDate" binding:"required"`
	CheckInTime  *Timestamp   `json:"checkInTime"`
	CheckOutTime *Timestamp   `json:"checkOutTime"`
	Status       string       `json:"status"`
	Notes        string       `json:"notes"`
}

type VisitUpdateRequest struct {
	UserID       *uint        `json:"userId"`
	DoctorID     *uint        `json:"doctorId"`
	LocationID   *uint        `json:"locationId"`
	VisitDate    *models.Date `json:"visitDate"`
	CheckInTime  *Timestamp   `json:"checkInTime"`
	CheckOutTime *Timestamp   `json:"checkOutTime"`
	Status       *string      `json:"status"`
	Notes        *string      `json:"notes"`
}

type StartVisitRequest struct {
	UserID     uint   `json:"userId" binding:"required"`
	LocationID uint   `json:"locationId" binding:"required"`
	DoctorID   uint   `json:"doctorId" binding:"required"`
	Notes      string `json:"notes"`
}

type EndVisitRequest struct {
	Notes *string `json:"notes"`
}

type SampleRequest struct {
	DoctorID   uint         `json:"doctorId" binding:"required"`
	ProductID  uint         `json:"productId" binding:"required"`
	Quantity   int          `json:"quantity" binding:"required,min=1"`
	DateIssued *models.Date `json:"dateIssued" binding:"required"`
	VisitID    *uint        `json:"visitId"`
}

type SampleUpdateRequest struct {
	DoctorID   *uint        `json:"doctorId"`
	ProductID  *uint        `json:"productId"`
	Quantity   *int         `json:"quantity" binding:"omitempty,min=1"`
	DateIssued *models.Date `json:"dateIssued"`
	VisitID    *uint        `json:"visitId"`
}

type OrderItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
	// UnitPrice falls back to the catalog price when omitted.
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
}

type OrderRequest struct {
	DoctorID      uint               `json:"doctorId" binding:"required"`
	OrderDate     *models.Date       `json:"orderDate" binding:"required"`
	Status        string             `json:"status" binding:"required"`
	PaymentStatus string             `json:"paymentStatus" binding:"required"`
	Notes         string             `json:"notes"`
	VisitID       *uint              `json:"visitId"`
	Items         []OrderItemRequest `json:"orderItems" binding:"dive"`
}

type OrderPatchRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	Notes         *string `json:"notes"`
}
