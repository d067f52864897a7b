package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"medtrack/internal/apperrors"
	"medtrack/internal/database"
	"medtrack/internal/dto"
	"medtrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

// orderNumberAttempts bounds the retries when a generated number collides.
const orderNumberAttempts = 5

var hundred = decimal.NewFromInt(100)

// LineSubtotal is unit × quantity × (1 − discount/100), rounded half-up to cents.
func LineSubtotal(unit decimal.Decimal, quantity int, discountPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.DivRound(hundred, 4))
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Mul(factor).Round(2)
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNNNN.
func FormatOrderNumber(day models.Date, seq int64) string {
	return fmt.Sprintf("ORD-%s-%05d", day.Format("20060102"), seq)
}

// OrderService places multi-line orders and reports revenue. Order numbers
// are count+1 for the day of creation; the unique index on order_number
// plus a bounded retry resolves collisions between concurrent creates.
type OrderService struct {
	base
	events EventPublisher
}

func withOrderRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Doctor").Preload("Visit").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Items.Product")
}

func (s *OrderService) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	q := scope(withOrderRefs(s.conn(ctx))).Order("order_date desc, created_at desc, id desc")
	return orders, dbError(q.Find(&orders).Error, "list orders")
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := findByID(withOrderRefs(s.conn(ctx)), &order, id, "Order"); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := withOrderRefs(s.conn(ctx)).Where("order_number = ?", number).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Order not found with order number: %s", number)
	}
	if err != nil {
		return nil, dbError(err, "load order")
	}
	return &order, nil
}

func (s *OrderService) ByDoctor(ctx context.Context, doctorID uint) ([]models.Order, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("doctor_id = ?", doctorID) })
}

func (s *OrderService) ByVisit(ctx context.Context, visitID uint) ([]models.Order, error) {
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("visit_id = ?", visitID) })
}

func (s *OrderService) ByStatus(ctx context.Context, status string) ([]models.Order, error) {
	st, err := parseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", st) })
}

func (s *OrderService) ByPaymentStatus(ctx context.Context, status string) ([]models.Order, error) {
	ps, err := parsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("payment_status = ?", ps) })
}

func (s *OrderService) ByDateRange(ctx context.Context, from, to models.Date) ([]models.Order, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("order_date BETWEEN ? AND ?", from, to)
	})
}

func (s *OrderService) ByDoctorDateRange(ctx context.Context, doctorID uint, from, to models.Date) ([]models.Order, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("doctor_id = ? AND order_date BETWEEN ? AND ?", doctorID, from, to)
	})
}

// Recent returns the latest orders by order date, then creation time.
func (s *OrderService) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Limit(limit) })
}

// Create validates references and lines, prices every line and stores the
// order with its items atomically.
func (s *OrderService) Create(ctx context.Context, req dto.OrderRequest) (*models.Order, error) {
	status, err := parseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	payment, err := parsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, err
	}
	if req.OrderDate == nil || req.OrderDate.IsZero() {
		return nil, apperrors.Validation("Order date is required")
	}
	today := s.today()
	if req.OrderDate.After(today) {
		return nil, apperrors.BadRequest("Order date cannot be in the future")
	}
	if len(req.Items) == 0 {
		return nil, apperrors.BadRequest("Order must have at least one item")
	}

	var order models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order = models.Order{
			DoctorID:      req.DoctorID,
			OrderDate:     *req.OrderDate,
			Status:        status,
			PaymentStatus: payment,
			Notes:         req.Notes,
			VisitID:       req.VisitID,
		}
		err = s.inTx(ctx, func(tx *gorm.DB) error {
			return s.place(tx, &order, req.Items, today, int64(attempt))
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.Internal(err, "could not allocate a unique order number")
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, EventOrderCreated, map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"totalAmount": order.TotalAmount,
	})
	return s.Get(ctx, order.ID)
}

func (s *OrderService) place(tx *gorm.DB, order *models.Order, lines []dto.OrderItemRequest, today models.Date, offset int64) error {
	if err := requireExists(tx, &models.Doctor{}, order.DoctorID, "Doctor"); err != nil {
		return err
	}
	if order.VisitID != nil {
		if err := checkVisitDoctor(tx, *order.VisitID, order.DoctorID); err != nil {
			return err
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		item, err := priceLine(tx, line)
		if err != nil {
			return err
		}
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}
	order.TotalAmount = total.Round(2)

	seq, err := nextOrderSequence(tx, today)
	if err != nil {
		return err
	}
	order.OrderNumber = FormatOrderNumber(today, seq+offset)

	// Duplicate key errors are returned unwrapped so Create can retry.
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		return dbError(err, "create order")
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return dbError(err, "create order items")
	}
	order.Items = items
	return nil
}

// nextOrderSequence is count+1, moved past the highest number already issued
// today so deleted orders never make it collide.
func nextOrderSequence(tx *gorm.DB, today models.Date) (int64, error) {
	var count int64
	if err := tx.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count orders")
	}

	prefix := FormatOrderNumber(today, 0)
	prefix = prefix[:len(prefix)-5]
	var last []string
	err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number desc").
		Limit(1).
		Pluck("order_number", &last).Error
	if err != nil {
		return 0, dbError(err, "load last order number")
	}

	next := count + 1
	if len(last) == 1 {
		if n, err := strconv.ParseInt(strings.TrimPrefix(last[0], prefix), 10, 64); err == nil && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

func priceLine(tx *gorm.DB, line dto.OrderItemRequest) (models.OrderItem, error) {
	if line.Quantity < 1 {
		return models.OrderItem{}, apperrors.Validation("Quantity must be at least 1")
	}
	var product models.Product
	if err := findByID(tx, &product, line.ProductID, "Product"); err != nil {
		return models.OrderItem{}, err
	}

	unit := product.Price
	if line.UnitPrice != nil {
		unit = *line.UnitPrice
	}
	if unit.IsNegative() {
		return models.OrderItem{}, apperrors.BadRequest("Unit price cannot be negative")
	}
	discount := decimal.Zero
	if line.DiscountPercent != nil {
		discount = *line.DiscountPercent
	}
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return models.OrderItem{}, apperrors.BadRequest("Discount percent must be between 0 and 100")
	}

	unit = unit.Round(2)
	discount = discount.Round(2)
	return models.OrderItem{
		ProductID:       product.ID,
		Product:         &product,
		Quantity:        line.Quantity,
		UnitPrice:       unit,
		DiscountPercent: discount,
		Subtotal:        LineSubtotal(unit, line.Quantity, discount),
	}, nil
}

// Patch sets status, payment status and notes when supplied. Totals are not
// recomputed and status transitions are unrestricted.
func (s *OrderService) Patch(ctx context.Context, id uint, req dto.OrderPatchRequest) (*models.Order, error) {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := findByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &order, id, "Order"); err != nil {
			return err
		}
		if req.Status != nil {
			st, err := parseOrderStatus(*req.Status)
			if err != nil {
				return err
			}
			order.Status = st
		}
		if req.PaymentStatus != nil {
			ps, err := parsePaymentStatus(*req.PaymentStatus)
			if err != nil {
				return err
			}
			order.PaymentStatus = ps
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}
		return dbError(tx.Omit(clause.Associations).Save(&order).Error, "update order")
	})
	if err != nil {
		return nil, err
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, EventOrderUpdated, map[string]any{
		"orderId":       order.ID,
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
	})
	return order, nil
}

// Delete removes the items first, then the order.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Order{}, id, "Order"); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return dbError(err, "delete order items")
		}
		return deleteError(tx.Delete(&models.Order{}, id).Error, "Order")
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, EventOrderDeleted, map[string]any{"orderId": id})
	return nil
}

func (s *OrderService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	total, err := database.TotalRevenue(s.conn(ctx), database.RevenueFilter{})
	return total, dbError(err, "sum revenue")
}

func (s *OrderService) RevenueByDoctor(ctx context.Context, doctorID uint) (decimal.Decimal, error) {
	total, err := database.TotalRevenue(s.conn(ctx), database.RevenueFilter{DoctorID: doctorID})
	return total, dbError(err, "sum revenue")
}

func (s *OrderService) RevenueByDateRange(ctx context.Context, from, to models.Date) (decimal.Decimal, error) {
	if err := checkRange(from, to); err != nil {
		return decimal.Zero, err
	}
	total, err := database.TotalRevenue(s.conn(ctx), database.RevenueFilter{From: &from, To: &to})
	return total, dbError(err, "sum revenue")
}

// CountByStatus counts orders in one status, CANCELLED included.
func (s *OrderService) CountByStatus(ctx context.Context, status string) (int64, error) {
	st, err := parseOrderStatus(status)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.conn(ctx).Model(&models.Order{}).Where("status = ?", st).Count(&n).Error
	return n, dbError(err, "count orders")
}

// TopSelling ranks products by ordered quantity over non-cancelled orders.
func (s *OrderService) TopSelling(ctx context.Context, limit int) ([]database.ProductQuantity, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := database.TopSellingProducts(s.conn(ctx), limit)
	return rows, dbError(err, "rank products")
}

func parseOrderStatus(s string) (models.OrderStatus, error) {
	st := models.OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperrors.BadRequest("Invalid order status: %s", s)
	}
	return st, nil
}

func parsePaymentStatus(s string) (models.PaymentStatus, error) {
	ps := models.PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !ps.Valid() {
		return "", apperrors.BadRequest("Invalid payment status: %s", s)
	}
	return ps, nil
}
