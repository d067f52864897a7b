package database

import (
	"medtrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RevenueFilter narrows a revenue sum. Zero values mean "no constraint".
type RevenueFilter struct {
	DoctorID uint
	From     *models.Date
	To       *models.Date
}

// TotalRevenue sums total_amount over orders that are not CANCELLED.
func TotalRevenue(db *gorm.DB, f RevenueFilter) (decimal.Decimal, error) {
	q := db.Model(&models.Order{}).Where("status <> ?", models.OrderCancelled)
	if f.DoctorID != 0 {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if f.From != nil && f.To != nil {
		q = q.Where("order_date BETWEEN ? AND ?", *f.From, *f.To)
	}

	// COALESCE gives 0 instead of NULL when nothing matches
	var result struct {
		Total decimal.Decimal
	}
	if err := q.Select("COALESCE(SUM(total_amount), 0) AS total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total.Round(2), nil
}

// ProductQuantity is one row of a top-products report.
type ProductQuantity struct {
	ProductID    uint   `json:"productId"`
	ProductName  string `json:"productName"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	Total        int64  `json:"total"`
}

// TopSampleProducts ranks products by summed sample quantity, ties by product id.
func TopSampleProducts(db *gorm.DB, limit int) ([]ProductQuantity, error) {
	var rows []ProductQuantity
	err := db.Table("samples").
		Select("products.id as product_id, products.name as product_name, products.category, products.manufacturer, SUM(samples.quantity) as total").
		Joins("JOIN products ON samples.product_id = products.id").
		Group("products.id, products.name, products.category, products.manufacturer").
		Order("total desc, products.id asc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopSellingProducts ranks products by ordered quantity, excluding CANCELLED orders.
func TopSellingProducts(db *gorm.DB, limit int) ([]ProductQuantity, error) {
	var rows []ProductQuantity
	err := db.Table("order_item").
		Select("products.id as product_id, products.name as product_name, products.category, products.manufacturer, SUM(order_item.quantity) as total").
		Joins("JOIN orders ON order_item.order_id = orders.id").
		Joins("JOIN products ON order_item.product_id = products.id").
		Where("orders.status <> ?", models.OrderCancelled).
		Group("products.id, products.name, products.category, products.manufacturer").
		Order("total desc, products.id asc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SampleQuantity sums sample quantity for one product or one doctor.
func SampleQuantity(db *gorm.DB, column string, id uint) (int64, error) {
	var total int64
	err := db.Model(&models.Sample{}).
		Where(column+" = ?", id).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}
