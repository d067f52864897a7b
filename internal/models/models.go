package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Money goes out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Role string

const (
	RoleRep     Role = "REP"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRep, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type VisitStatus string

const (
	VisitInProgress VisitStatus = "IN_PROGRESS"
	VisitCompleted  VisitStatus = "COMPLETED"
	VisitCancelled  VisitStatus = "CANCELLED"
)

func (s VisitStatus) Valid() bool {
	switch s {
	case VisitInProgress, VisitCompleted, VisitCancelled:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// User - a rep, manager or admin. Locations are the places the user may visit.
type User struct {
	ID           uint       `gorm:"primaryKey"`
	Name         string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:150;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password;size:255;not null"`
	Role         Role       `gorm:"size:20;not null;default:REP"`
	Phone        string     `gorm:"size:30"`
	IsActive     bool       `gorm:"not null"`
	Locations    []Location `gorm:"many2many:user_locations;"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Location struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null"`
	City      string `gorm:"size:100;not null;index"`
	State     string `gorm:"size:100"`
	Country   string `gorm:"size:100"`
	Address   string `gorm:"size:255"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;uniqueIndex:idx_doctor_name_hospital"`
	Specialty string `gorm:"size:100;index"`
	Hospital  string `gorm:"size:150;uniqueIndex:idx_doctor_name_hospital"`
	Phone     string `gorm:"size:30"`
	CreatedAt time.Time
}

type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:150;not null;uniqueIndex"`
	Category      string          `gorm:"size:100;index"`
	Manufacturer  string          `gorm:"size:150"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	CreatedAt     time.Time
}

// Visit - one rep meeting one doctor. ActiveUserID mirrors UserID only while
// the visit is IN_PROGRESS; its unique index allows one active visit per user.
type Visit struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"not null;index"`
	User         *User
	DoctorID     uint `gorm:"not null;index"`
	Doctor       *Doctor
	LocationID   *uint `gorm:"index"`
	Location     *Location
	VisitDate    Date        `gorm:"not null;index"`
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Status       VisitStatus `gorm:"size:20;not null;index"`
	Notes        string      `gorm:"type:text"`
	ActiveUserID *uint       `gorm:"uniqueIndex:idx_visits_active_user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v *Visit) BeforeSave(tx *gorm.DB) error {
	if v.Status == VisitInProgress {
		id := v.UserID
		v.ActiveUserID = &id
	} else {
		v.ActiveUserID = nil
	}
	return nil
}

// Sample - product left with a doctor. One row per (doctor, product).
type Sample struct {
	ID         uint `gorm:"primaryKey"`
	DoctorID   uint `gorm:"not null;uniqueIndex:idx_sample_doctor_product"`
	Doctor     *Doctor
	ProductID  uint `gorm:"not null;uniqueIndex:idx_sample_doctor_product;index"`
	Product    *Product
	Quantity   int  `gorm:"not null"`
	DateIssued Date `gorm:"not null;index"`
	VisitID    *uint `gorm:"index"`
	Visit      *Visit
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	ID            uint   `gorm:"primaryKey"`
	OrderNumber   string `gorm:"size:32;not null;uniqueIndex"`
	DoctorID      uint   `gorm:"not null;index"`
	Doctor        *Doctor
	OrderDate     Date            `gorm:"not null;index"`
	Status        OrderStatus     `gorm:"size:20;not null;index"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Notes         string          `gorm:"type:text"`
	VisitID       *uint           `gorm:"index"`
	Visit         *Visit
	Items         []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem - one line of an order. Subtotal is derived from price, quantity and discount.
type OrderItem struct {
	ID              uint `gorm:"primaryKey"`
	OrderID         uint `gorm:"not null;index"`
	ProductID       uint `gorm:"not null;index"`
	Product         *Product
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt       time.Time
}

// TableName keeps the singular name used by the existing schema.
func (OrderItem) TableName() string { return "order_item" }
