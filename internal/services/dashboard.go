package services

import (
	"context"
	"log"
	"time"
	"unicode/utf8"

	"medtrack/internal/database"
	"medtrack/internal/models"

	"gorm.io/gorm"
)

const (
	recentVisitDays  = 7
	recentVisitLimit = 10
	topProductLimit  = 5
	notesPreviewLen  = 50

	dashboardCacheKey = "medtrack:dashboard:admin"
)

// StatsCache stores computed dashboard stats between requests.
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type DashboardStats struct {
	TotalUsers        int64         `json:"totalUsers"`
	TotalDoctors      int64         `json:"totalDoctors"`
	TotalProducts     int64         `json:"totalProducts"`
	RecentVisitsCount int64         `json:"recentVisitsCount"`
	RecentVisits      []RecentVisit `json:"recentVisits"`
	ActiveRepsCount   int64         `json:"activeRepsCount"`
	TopProducts       []TopProduct  `json:"topProducts"`
}

type RecentVisit struct {
	VisitID    uint        `json:"visitId"`
	DoctorName string      `json:"doctorName"`
	RepName    string      `json:"repName"`
	VisitDate  models.Date `json:"visitDate"`
	Purpose    string      `json:"purpose"`
}

type TopProduct struct {
	ProductID    uint   `json:"productId"`
	ProductName  string `json:"productName"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	TotalSamples int64  `json:"totalSamples"`
}

// DashboardService reads across the stores; it never writes.
type DashboardService struct {
	base
	cache StatsCache
	ttl   time.Duration
}

// AdminStats serves from the cache when one is configured and warm.
func (s *DashboardService) AdminStats(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil && s.ttl > 0 {
		var cached DashboardStats
		hit, err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			log.Printf("dashboard cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, stats, s.ttl); err != nil {
			log.Printf("dashboard cache write failed: %v", err)
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardStats, error) {
	db := s.conn(ctx)
	stats := &DashboardStats{
		RecentVisits: []RecentVisit{},
		TopProducts:  []TopProduct{},
	}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, dbError(err, "count users")
	}
	if err := db.Model(&models.Doctor{}).Count(&stats.TotalDoctors).Error; err != nil {
		return nil, dbError(err, "count doctors")
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, dbError(err, "count products")
	}

	today := s.today()
	since := today.AddDays(-recentVisitDays)
	recent := func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Visit{}).Where("visit_date BETWEEN ? AND ?", since, today)
	}
	if err := recent(db).Count(&stats.RecentVisitsCount).Error; err != nil {
		return nil, dbError(err, "count recent visits")
	}

	var visits []models.Visit
	err := recent(db.Preload("User").Preload("Doctor")).
		Order("visit_date desc, id desc").
		Limit(recentVisitLimit).
		Find(&visits).Error
	if err != nil {
		return nil, dbError(err, "load recent visits")
	}
	for _, v := range visits {
		rv := RecentVisit{VisitID: v.ID, VisitDate: v.VisitDate, Purpose: NotesPreview(v.Notes)}
		if v.Doctor != nil {
			rv.DoctorName = v.Doctor.Name
		}
		if v.User != nil {
			rv.RepName = v.User.Name
		}
		stats.RecentVisits = append(stats.RecentVisits, rv)
	}

	monthStart := today.AddDays(1 - today.Day())
	err = db.Model(&models.Visit{}).
		Joins("JOIN users ON users.id = visits.user_id").
		Where("users.role = ? AND visits.visit_date BETWEEN ? AND ?", models.RoleRep, monthStart, today).
		Distinct("visits.user_id").
		Count(&stats.ActiveRepsCount).Error
	if err != nil {
		return nil, dbError(err, "count active reps")
	}

	top, err := database.TopSampleProducts(db, topProductLimit)
	if err != nil {
		return nil, dbError(err, "rank sample products")
	}
	for _, p := range top {
		stats.TopProducts = append(stats.TopProducts, TopProduct{
			ProductID:    p.ProductID,
			ProductName:  p.ProductName,
			Category:     p.Category,
			Manufacturer: p.Manufacturer,
			TotalSamples: p.Total,
		})
	}
	return stats, nil
}

// NotesPreview is at most 50 characters of notes plus "...", or "No notes".
func NotesPreview(notes string) string {
	if notes == "" {
		return "No notes"
	}
	if utf8.RuneCountInString(notes) > notesPreviewLen {
		notes = string([]rune(notes)[:notesPreviewLen])
	}
	return notes + "..."
}
