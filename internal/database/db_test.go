package database

import (
	"context"
	"testing"

	"medtrack/internal/config"
	"medtrack/internal/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMySQLDSN(t *testing.T) {
	for _, url := range []string{
		"db.internal:3306/medtrack",
		"mysql://db.internal:3306/medtrack",
		"jdbc:mysql://db.internal:3306/medtrack?useSSL=false",
	} {
		dsn, err := MySQLDSN(config.DBConfig{URL: url, User: "app", Password: "p@ss:word"})
		require.NoError(t, err, url)

		parsed, err := mysqldriver.ParseDSN(dsn)
		require.NoError(t, err, dsn)
		assert.Equal(t, "db.internal:3306", parsed.Addr)
		assert.Equal(t, "medtrack", parsed.DBName)
		assert.Equal(t, "app", parsed.User)
		assert.Equal(t, "p@ss:word", parsed.Passwd)
		assert.True(t, parsed.ParseTime)
	}

	_, err := MySQLDSN(config.DBConfig{URL: "db.internal:3306"})
	assert.EqualError(t, err, `DB_URL "db.internal:3306" must look like host:port/dbname`)
}

func TestPostgresDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h:5432/db", PostgresDSN(config.DBConfig{URL: "postgres://u:p@h:5432/db"}))
	assert.Equal(t, "postgresql://h/db", PostgresDSN(config.DBConfig{URL: "jdbc:postgresql://h/db"}))
	assert.Equal(t,
		"host=pg port=5432 user=app password=pw dbname=medtrack sslmode=disable",
		PostgresDSN(config.DBConfig{URL: "pg/medtrack", User: "app", Password: "pw"}))
}

func TestDialector(t *testing.T) {
	d, err := Dialector(config.DBConfig{Driver: "postgres", URL: "pg:5433/medtrack"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(config.DBConfig{Driver: "mysql", URL: "db:3306/medtrack"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector(config.DBConfig{Driver: "oracle"})
	assert.EqualError(t, err, `unsupported database driver "oracle"`)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("SILENT"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, Migrate(db))
	return db
}

func TestReports(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, Ping(context.Background(), db))

	doc := models.Doctor{Name: "Dr. Rao", Hospital: "City"}
	require.NoError(t, db.Create(&doc).Error)
	p1 := models.Product{Name: "A", Price: decimal.NewFromInt(10)}
	p2 := models.Product{Name: "B", Price: decimal.NewFromInt(20)}
	require.NoError(t, db.Create(&p1).Error)
	require.NoError(t, db.Create(&p2).Error)

	day := func(s string) models.Date {
		d, err := models.ParseDate(s)
		require.NoError(t, err)
		return d
	}
	order := func(number string, status models.OrderStatus, date string, total string, items ...models.OrderItem) {
		o := models.Order{
			OrderNumber: number, DoctorID: doc.ID, OrderDate: day(date), Status: status,
			PaymentStatus: models.PaymentUnpaid, TotalAmount: decimal.RequireFromString(total), Items: items,
		}
		require.NoError(t, db.Create(&o).Error)
	}
	item := func(p models.Product, qty int) models.OrderItem {
		return models.OrderItem{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price, Subtotal: p.Price.Mul(decimal.NewFromInt(int64(qty)))}
	}
	order("ORD-20250310-00001", models.OrderDelivered, "2025-03-10", "120.50", item(p1, 2))
	order("ORD-20250312-00002", models.OrderPending, "2025-03-12", "79.50", item(p2, 1))
	order("ORD-20250312-00003", models.OrderCancelled, "2025-03-12", "1000", item(p2, 50))

	total, err := TotalRevenue(db, RevenueFilter{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(total), total.String())

	from, to := day("2025-03-11"), day("2025-03-31")
	total, err = TotalRevenue(db, RevenueFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("79.50").Equal(total), total.String())

	total, err = TotalRevenue(db, RevenueFilter{DoctorID: doc.ID + 1})
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	top, err := TopSellingProducts(db, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, p1.ID, top[0].ProductID)
	assert.EqualValues(t, 2, top[0].Total)

	require.NoError(t, db.Create(&models.Sample{DoctorID: doc.ID, ProductID: p2.ID, Quantity: 4, DateIssued: day("2025-03-10")}).Error)
	require.NoError(t, db.Create(&models.Sample{DoctorID: doc.ID, ProductID: p1.ID, Quantity: 4, DateIssued: day("2025-03-11")}).Error)

	samples, err := TopSampleProducts(db, 1)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, p1.ID, samples[0].ProductID, "ties go to the lower product id")

	qty, err := SampleQuantity(db, "doctor_id", doc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, qty)
	qty, err = SampleQuantity(db, "product_id", p2.ID+10)
	require.NoError(t, err)
	assert.Zero(t, qty)
}
