package services

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"medtrack/internal/apperrors"
	"medtrack/internal/dto"
	"medtrack/internal/models"
	"medtrack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSubtotal(t *testing.T) {
	cases := []struct {
		unit, discount string
		qty            int
		want           string
	}{
		{"100.00", "10", 2, "180.00"},
		{"50.00", "0", 1, "50.00"},
		{"19.99", "12.5", 3, "52.47"},
		{"0.05", "50", 1, "0.03"},
		{"10.00", "100", 4, "0.00"},
		{"33.33", "33.33", 3, "66.66"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s x%d -%s%%", tc.unit, tc.qty, tc.discount), func(t *testing.T) {
			assertDecimal(t, tc.want, LineSubtotal(dec(tc.unit), tc.qty, dec(tc.discount)))
		})
	}
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-20250315-00001", FormatOrderNumber(*date("2025-03-15"), 1))
	assert.Equal(t, "ORD-20251231-12345", FormatOrderNumber(*date("2025-12-31"), 12345))
}

func orderRequest(doctorID uint, items ...dto.OrderItemRequest) dto.OrderRequest {
	return dto.OrderRequest{
		DoctorID:      doctorID,
		OrderDate:     date("2025-03-15"),
		Status:        "PENDING",
		PaymentStatus: "UNPAID",
		Items:         items,
	}
}

func TestCreateOrderTotals(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	p1 := testutil.CreateProduct(t, f.db, "Atorva 10", "100.00")
	p2 := testutil.CreateProduct(t, f.db, "Metformin 500", "50.00")

	order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID,
		dto.OrderItemRequest{ProductID: p1.ID, Quantity: 2, UnitPrice: ptr(dec("100.00")), DiscountPercent: ptr(dec("10"))},
		dto.OrderItemRequest{ProductID: p2.ID, Quantity: 1, UnitPrice: ptr(dec("50.00")), DiscountPercent: ptr(dec("0"))},
	))
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250315-00001", order.OrderNumber)
	assertDecimal(t, "230.00", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assertDecimal(t, "180.00", order.Items[0].Subtotal)
	assertDecimal(t, "50.00", order.Items[1].Subtotal)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Atorva 10", order.Items[0].Product.Name)
	require.NotNil(t, order.Doctor)
	assert.Equal(t, "Dr. Rao", order.Doctor.Name)

	second, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p2.ID, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250315-00002", second.OrderNumber)
	// Missing unit price and discount fall back to the catalog price and no discount.
	assertDecimal(t, "50.00", second.Items[0].UnitPrice)
	assertDecimal(t, "0", second.Items[0].DiscountPercent)
	assertDecimal(t, "150.00", second.TotalAmount)

	assert.Equal(t, []string{EventOrderCreated, EventOrderCreated}, f.events.names())
}

func TestCreateOrderSkipsTakenNumber(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")

	// One existing order already holds the number count+1 would produce.
	taken := models.Order{
		OrderNumber:   "ORD-20250315-00002",
		DoctorID:      doc.ID,
		OrderDate:     *date("2025-03-15"),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
		TotalAmount:   dec("1.00"),
	}
	require.NoError(t, f.db.Create(&taken).Error)

	order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250315-00003", order.OrderNumber)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{5}$`), order.OrderNumber)

	var items int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)
}

func TestCreateOrderNumberAfterDeletes(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")

	var ids []uint
	for i := 0; i < 10; i++ {
		order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	for _, id := range ids[:5] {
		require.NoError(t, f.svc.Orders.Delete(f.ctx, id))
	}

	order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250315-00011", order.OrderNumber)

	// A new day starts again from count+1.
	f.clock.Advance(24 * time.Hour)
	req := orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p.ID, Quantity: 1})
	req.OrderDate = date("2025-03-16")
	order, err = f.svc.Orders.Create(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250316-00007", order.OrderNumber)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	other := testutil.CreateDoctor(t, f.db, "Dr. Iyer", "City Hospital")
	rep := testutil.CreateUser(t, f.db, "Ravi", models.RoleRep)
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")
	line := dto.OrderItemRequest{ProductID: p.ID, Quantity: 1}

	visit, err := f.svc.Visits.Create(f.ctx, dto.VisitRequest{UserID: rep.ID, DoctorID: other.ID, VisitDate: date("2025-03-15")})
	require.NoError(t, err)

	cases := []struct {
		name string
		edit func(*dto.OrderRequest)
		kind apperrors.Kind
		msg  string
	}{
		{"no items", func(r *dto.OrderRequest) { r.Items = nil }, apperrors.KindBadRequest, "Order must have at least one item"},
		{"future date", func(r *dto.OrderRequest) { r.OrderDate = date("2025-03-16") }, apperrors.KindBadRequest, "Order date cannot be in the future"},
		{"bad status", func(r *dto.OrderRequest) { r.Status = "LOST" }, apperrors.KindBadRequest, "Invalid order status: LOST"},
		{"bad payment", func(r *dto.OrderRequest) { r.PaymentStatus = "OWED" }, apperrors.KindBadRequest, "Invalid payment status: OWED"},
		{"unknown doctor", func(r *dto.OrderRequest) { r.DoctorID = 999 }, apperrors.KindNotFound, "Doctor not found with id: 999"},
		{"unknown product", func(r *dto.OrderRequest) { r.Items[0].ProductID = 999 }, apperrors.KindNotFound, "Product not found with id: 999"},
		{"zero quantity", func(r *dto.OrderRequest) { r.Items[0].Quantity = 0 }, apperrors.KindValidation, "Quantity must be at least 1"},
		{"discount over 100", func(r *dto.OrderRequest) { r.Items[0].DiscountPercent = ptr(dec("100.01")) }, apperrors.KindBadRequest, "Discount percent must be between 0 and 100"},
		{"negative price", func(r *dto.OrderRequest) { r.Items[0].UnitPrice = ptr(dec("-1")) }, apperrors.KindBadRequest, "Unit price cannot be negative"},
		{"visit of other doctor", func(r *dto.OrderRequest) { r.VisitID = &visit.ID }, apperrors.KindBadRequest, "Visit does not belong to the specified doctor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := orderRequest(doc.ID, line)
			tc.edit(&req)
			_, err := f.svc.Orders.Create(f.ctx, req)
			assertAppError(t, err, tc.kind, tc.msg)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRevenueExcludesCancelled(t *testing.T) {
	f := newFixture(t)
	d1 := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	d2 := testutil.CreateDoctor(t, f.db, "Dr. Iyer", "City Hospital")
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")

	first, err := f.svc.Orders.Create(f.ctx, orderRequest(d1.ID,
		dto.OrderItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: ptr(dec("300.00"))}))
	require.NoError(t, err)
	second, err := f.svc.Orders.Create(f.ctx, orderRequest(d2.ID,
		dto.OrderItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: ptr(dec("200.00"))}))
	require.NoError(t, err)

	total, err := f.svc.Orders.TotalRevenue(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "500", total)

	patched, err := f.svc.Orders.Patch(f.ctx, second.ID, dto.OrderPatchRequest{Status: ptr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, patched.Status)
	assertDecimal(t, "200.00", patched.TotalAmount)

	total, err = f.svc.Orders.TotalRevenue(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "300", total)

	byDoctor, err := f.svc.Orders.RevenueByDoctor(f.ctx, d2.ID)
	require.NoError(t, err)
	assert.True(t, byDoctor.IsZero())

	ranged, err := f.svc.Orders.RevenueByDateRange(f.ctx, *date("2025-03-01"), *date("2025-03-31"))
	require.NoError(t, err)
	assertDecimal(t, "300", ranged)

	_, err = f.svc.Orders.RevenueByDateRange(f.ctx, *date("2025-03-31"), *date("2025-03-01"))
	assertAppError(t, err, apperrors.KindBadRequest, "Start date cannot be after end date")

	cancelled, err := f.svc.Orders.CountByStatus(f.ctx, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)
	pending, err := f.svc.Orders.CountByStatus(f.ctx, "PENDING")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	byNumber, err := f.svc.Orders.GetByNumber(f.ctx, first.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byNumber.ID)
}

func TestPatchOrder(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")

	order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID, dto.OrderItemRequest{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	patched, err := f.svc.Orders.Patch(f.ctx, order.ID, dto.OrderPatchRequest{PaymentStatus: ptr("PAID"), Notes: ptr("cash")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, patched.Status)
	assert.Equal(t, models.PaymentPaid, patched.PaymentStatus)
	assert.Equal(t, "cash", patched.Notes)
	assertDecimal(t, "20.00", patched.TotalAmount)

	// Transitions are not restricted.
	_, err = f.svc.Orders.Patch(f.ctx, order.ID, dto.OrderPatchRequest{Status: ptr("DELIVERED")})
	require.NoError(t, err)
	back, err := f.svc.Orders.Patch(f.ctx, order.ID, dto.OrderPatchRequest{Status: ptr("PENDING")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, back.Status)

	_, err = f.svc.Orders.Patch(f.ctx, order.ID, dto.OrderPatchRequest{PaymentStatus: ptr("OWED")})
	assertAppError(t, err, apperrors.KindBadRequest, "Invalid payment status: OWED")

	_, err = f.svc.Orders.Patch(f.ctx, 999, dto.OrderPatchRequest{})
	assertAppError(t, err, apperrors.KindNotFound, "Order not found with id: 999")
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	f := newFixture(t)
	doc := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	p := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")

	order, err := f.svc.Orders.Create(f.ctx, orderRequest(doc.ID,
		dto.OrderItemRequest{ProductID: p.ID, Quantity: 1},
		dto.OrderItemRequest{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	require.NoError(t, f.svc.Orders.Delete(f.ctx, order.ID))

	var items int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)

	err = f.svc.Orders.Delete(f.ctx, order.ID)
	assertAppError(t, err, apperrors.KindNotFound, fmt.Sprintf("Order not found with id: %d", order.ID))
	assert.Contains(t, f.events.names(), EventOrderDeleted)
}

func TestOrderQueries(t *testing.T) {
	f := newFixture(t)
	d1 := testutil.CreateDoctor(t, f.db, "Dr. Rao", "City Hospital")
	d2 := testutil.CreateDoctor(t, f.db, "Dr. Iyer", "City Hospital")
	p1 := testutil.CreateProduct(t, f.db, "Atorva 10", "10.00")
	p2 := testutil.CreateProduct(t, f.db, "Metformin 500", "5.00")

	mk := func(doctorID uint, day string, items ...dto.OrderItemRequest) *models.Order {
		req := orderRequest(doctorID, items...)
		req.OrderDate = date(day)
		o, err := f.svc.Orders.Create(f.ctx, req)
		require.NoError(t, err)
		return o
	}
	mk(d1.ID, "2025-03-01", dto.OrderItemRequest{ProductID: p1.ID, Quantity: 5})
	mk(d1.ID, "2025-03-10", dto.OrderItemRequest{ProductID: p2.ID, Quantity: 2})
	cancelled := mk(d2.ID, "2025-03-12", dto.OrderItemRequest{ProductID: p2.ID, Quantity: 50})
	_, err := f.svc.Orders.Patch(f.ctx, cancelled.ID, dto.OrderPatchRequest{Status: ptr("CANCELLED")})
	require.NoError(t, err)

	recent, err := f.svc.Orders.Recent(f.ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-03-12", recent[0].OrderDate.String())
	assert.Equal(t, "2025-03-10", recent[1].OrderDate.String())

	byDoctor, err := f.svc.Orders.ByDoctorDateRange(f.ctx, d1.ID, *date("2025-03-05"), *date("2025-03-15"))
	require.NoError(t, err)
	assert.Len(t, byDoctor, 1)

	unpaid, err := f.svc.Orders.ByPaymentStatus(f.ctx, "UNPAID")
	require.NoError(t, err)
	assert.Len(t, unpaid, 3)

	// Cancelled quantities do not count toward top sellers.
	top, err := f.svc.Orders.TopSelling(f.ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, p1.ID, top[0].ProductID)
	assert.Equal(t, int64(5), top[0].Total)
	assert.Equal(t, p2.ID, top[1].ProductID)
	assert.Equal(t, int64(2), top[1].Total)
}
