package dto

import (
	"sort"
	"time"

	"medtrack/internal/models"

	"github.com/shopspring/decimal"
)

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        models.Role        `json:"role"`
	Phone       string             `json:"phone"`
	IsActive    bool               `json:"isActive"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	LocationIDs []uint             `json:"locationIds"`
	Locations   []LocationResponse `json:"locations"`
}

func FromUser(u models.User) UserResponse {
	locations := FromLocations(u.Locations)
	ids := make([]uint, len(locations))
	for i, l := range locations {
		ids[i] = l.ID
	}
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LocationIDs: ids,
		Locations:   locations,
	}
}

func FromUsers(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = FromUser(u)
	}
	return out
}

type LocationResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func FromLocation(l models.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		City:      l.City,
		State:     l.State,
		Country:   l.Country,
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// FromLocations sorts by id so location sets render stably.
func FromLocations(locations []models.Location) []LocationResponse {
	out := make([]LocationResponse, len(locations))
	for i, l := range locations {
		out[i] = FromLocation(l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type DoctorResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Hospital  string    `json:"hospital"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromDoctor(d models.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
		Hospital:  d.Hospital,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}
}

func FromDoctors(doctors []models.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, len(doctors))
	for i, d := range doctors {
		out[i] = FromDoctor(d)
	}
	return out
}

type ProductResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Manufacturer  string          `json:"manufacturer"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func FromProduct(p models.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Manufacturer:  p.Manufacturer,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
	}
}

func FromProducts(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = FromProduct(p)
	}
	return out
}

type VisitResponse struct {
	ID           uint               `json:"id"`
	UserID       uint               `json:"userId"`
	UserName     string             `json:"userName"`
	DoctorID     uint               `json:"doctorId"`
	DoctorName   string             `json:"doctorName"`
	LocationID   *uint              `json:"locationId"`
	LocationName string             `json:"locationName,omitempty"`
	VisitDate    models.Date        `json:"visitDate"`
	CheckInTime  *time.Time         `json:"checkInTime"`
	CheckOutTime *time.Time         `json:"checkOutTime"`
	Status       models.VisitStatus `json:"status"`
	Notes        string             `json:"notes"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func FromVisit(v models.Visit) VisitResponse {
	out := VisitResponse{
		ID:           v.ID,
		UserID:       v.UserID,
		DoctorID:     v.DoctorID,
		LocationID:   v.LocationID,
		VisitDate:    v.VisitDate,
		CheckInTime:  v.CheckInTime,
		CheckOutTime: v.CheckOutTime,
		Status:       v.Status,
		Notes:        v.Notes,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.User != nil {
		out.UserName = v.User.Name
	}
	if v.Doctor != nil {
		out.DoctorName = v.Doctor.Name
	}
	if v.Location != nil {
		out.LocationName = v.Location.Name
	}
	return out
}

func FromVisits(visits []models.Visit) []VisitResponse {
	out := make([]VisitResponse, len(visits))
	for i, v := range visits {
		out[i] = FromVisit(v)
	}
	return out
}

type SampleResponse struct {
	ID          uint        `json:"id"`
	DoctorID    uint        `json:"doctorId"`
	DoctorName  string      `json:"doctorName"`
	ProductID   uint        `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	DateIssued  models.Date `json:"dateIssued"`
	VisitID     *uint       `json:"visitId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func FromSample(s models.Sample) SampleResponse {
	out := SampleResponse{
		ID:         s.ID,
		DoctorID:   s.DoctorID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		DateIssued: s.DateIssued,
		VisitID:    s.VisitID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Doctor != nil {
		out.DoctorName = s.Doctor.Name
	}
	if s.Product != nil {
		out.ProductName = s.Product.Name
	}
	return out
}

func FromSamples(samples []models.Sample) []SampleResponse {
	out := make([]SampleResponse, len(samples))
	for i, s := range samples {
		out[i] = FromSample(s)
	}
	return out
}

type OrderItemResponse struct {
	ID              uint            `json:"id"`
	OrderID         uint            `json:"orderId"`
	ProductID       uint            `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductCategory string          `json:"productCategory"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type OrderResponse struct {
	ID              uint                 `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	DoctorID        uint                 `json:"doctorId"`
	DoctorName      string               `json:"doctorName"`
	DoctorSpecialty string               `json:"doctorSpecialty"`
	DoctorHospital  string               `json:"doctorHospital"`
	OrderDate       models.Date          `json:"orderDate"`
	Status          models.OrderStatus   `json:"status"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	PaymentStatus   models.PaymentStatus `json:"paymentStatus"`
	Notes           string               `json:"notes"`
	VisitID         *uint                `json:"visitId"`
	VisitDate       *models.Date         `json:"visitDate"`
	OrderItems      []OrderItemResponse  `json:"orderItems"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func FromOrder(o models.Order) OrderResponse {
	out := OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		DoctorID:      o.DoctorID,
		OrderDate:     o.OrderDate,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		PaymentStatus: o.PaymentStatus,
		Notes:         o.Notes,
		VisitID:       o.VisitID,
		OrderItems:    make([]OrderItemResponse, len(o.Items)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Doctor != nil {
		out.DoctorName = o.Doctor.Name
		out.DoctorSpecialty = o.Doctor.Specialty
		out.DoctorHospital = o.Doctor.Hospital
	}
	if o.Visit != nil {
		d := o.Visit.VisitDate
		out.VisitDate = &d
	}
	for i, item := range o.Items {
		out.OrderItems[i] = OrderItemResponse{
			ID:              item.ID,
			OrderID:         item.OrderID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			Subtotal:        item.Subtotal,
			DiscountPercent: item.DiscountPercent,
		}
		if item.Product != nil {
			out.OrderItems[i].ProductName = item.Product.Name
			out.OrderItems[i].ProductCategory = item.Product.Category
		}
	}
	return out
}

func FromOrders(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}
