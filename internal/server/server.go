package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"medtrack/internal/config"
	"medtrack/internal/handlers"
	"medtrack/internal/middleware"
	"medtrack/internal/models"
	"medtrack/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	router *gin.Engine
	cfg    *config.Config
	h      *handlers.Handler
	tokens middleware.TokenVerifier
}

// NewServer wires middleware and routes onto a fresh gin engine.
func NewServer(cfg *config.Config, db *gorm.DB, svc *services.Services, tokens middleware.TokenVerifier) (*Server, error) {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		router: router,
		cfg:    cfg,
		h:      handlers.New(svc, db),
		tokens: tokens,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) setupRoutes() error {
	h := s.h
	s.router.GET("/health", h.Health)

	// --- PUBLIC ROUTES ---
	public := s.router.Group("/api/auth")
	if s.cfg.RateLimit != "" {
		limit, err := middleware.RateLimit(s.cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		public.Use(limit)
	}
	public.POST("/login", h.Login)
	if s.cfg.AllowRegistration {
		public.POST("/register", h.Register)
		log.Println("WARNING: registration is open and creates ADMIN accounts")
	} else {
		log.Println("Registration route is disabled")
	}

	// --- PROTECTED ROUTES ---
	api := s.router.Group("/api")
	api.Use(middleware.AuthMiddleware(s.tokens), middleware.AccessControl(middleware.DefaultRules))

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	staff := middleware.RequireRole(models.RoleManager, models.RoleAdmin)

	api.GET("/auth/me", h.Me)

	users := api.Group("/users")
	{
		users.GET("", h.GetUsers)
		users.POST("", h.CreateUser)
		users.GET("/role/:role", h.GetUsersByRole)
		users.GET("/by-location/:locationId", staff, h.GetUsersByLocation)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", adminOnly, h.DeleteUser)
		users.PUT("/:id/activate", h.ActivateUser)
		users.PATCH("/:id/activate", h.ActivateUser)
		users.PUT("/:id/deactivate", h.DeactivateUser)
		users.PATCH("/:id/deactivate", h.DeactivateUser)
		users.GET("/:id/locations", h.GetUserLocations)
		users.PUT("/:id/locations", h.AssignUserLocations)
		users.POST("/:id/locations/:locationId", h.AddUserLocation)
		users.DELETE("/:id/locations/:locationId", h.RemoveUserLocation)
	}

	locations := api.Group("/locations")
	{
		locations.GET("", h.GetLocations)
		locations.GET("/search", h.SearchLocations)
		locations.GET("/city/:city", h.GetLocationsByCity)
		locations.GET("/:id", h.GetLocation)
		locations.POST("", h.CreateLocation)
		locations.POST("/bulk", h.CreateLocationsBulk)
		locations.PUT("/:id", h.UpdateLocation)
		locations.PUT("/:id/activate", h.ActivateLocation)
		locations.PATCH("/:id/activate", h.ActivateLocation)
		locations.PUT("/:id/deactivate", h.DeactivateLocation)
		locations.PATCH("/:id/deactivate", h.DeactivateLocation)
		locations.DELETE("/:id", adminOnly, h.DeleteLocation)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", h.GetDoctors)
		doctors.GET("/search", h.SearchDoctors)
		doctors.GET("/specialty/:specialty", h.GetDoctorsBySpecialty)
		doctors.GET("/hospital/:hospital", h.GetDoctorsByHospital)
		doctors.GET("/:id", h.GetDoctor)
		doctors.POST("", h.CreateDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", adminOnly, h.DeleteDoctor)
	}

	products := api.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/search", h.SearchProducts)
		products.GET("/category/:category", h.GetProductsByCategory)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.AddProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", adminOnly, h.DeleteProduct)
	}

	visits := api.Group("/visits")
	{
		visits.GET("", h.GetVisits)
		visits.GET("/me", h.GetMyVisits)
		visits.GET("/date-range", h.GetVisitsByDateRange)
		visits.GET("/date/:date", h.GetVisitsByDate)
		visits.GET("/status/:status", h.GetVisitsByStatus)
		visits.GET("/user/:userId", h.GetVisitsByUser)
		visits.GET("/user/:userId/date-range", h.GetVisitsByUserDateRange)
		visits.GET("/user/:userId/active", h.GetActiveVisits)
		visits.GET("/doctor/:doctorId", h.GetVisitsByDoctor)
		visits.GET("/doctor/:doctorId/date-range", h.GetVisitsByDoctorDateRange)
		visits.GET("/location/:locationId", h.GetVisitsByLocation)
		visits.GET("/:id", h.GetVisit)
		visits.POST("", h.CreateVisit)
		visits.POST("/start", h.StartVisit)
		visits.PUT("/:id/end", h.EndVisit)
		visits.PUT("/:id", h.UpdateVisit)
		visits.DELETE("/:id", staff, h.DeleteVisit)
	}

	samples := api.Group("/samples")
	{
		samples.GET("", h.GetSamples)
		samples.GET("/date-range", h.GetSamplesByDateRange)
		samples.GET("/date/:date", h.GetSamplesByDate)
		samples.GET("/visit/:visitId", h.GetSamplesByVisit)
		samples.GET("/doctor/:doctorId", h.GetSamplesByDoctor)
		samples.GET("/doctor/:doctorId/date-range", h.GetSamplesByDoctorDateRange)
		samples.GET("/doctor/:doctorId/product/:productId", h.GetSampleByDoctorAndProduct)
		samples.GET("/product/:productId", h.GetSamplesByProduct)
		samples.GET("/product/:productId/date-range", h.GetSamplesByProductDateRange)
		samples.GET("/reports/product/:productId/total-quantity", h.GetProductSampleQuantity)
		samples.GET("/reports/doctor/:doctorId/total-quantity", h.GetDoctorSampleQuantity)
		samples.GET("/reports/top-products", h.GetTopSampleProducts)
		samples.GET("/:id", h.GetSample)
		samples.POST("", h.CreateSample)
		samples.PUT("/:id", h.UpdateSample)
		samples.DELETE("/:id", staff, h.DeleteSample)
	}

	orders := api.Group("/orders")
	{
		orders.GET("", h.GetOrders)
		orders.GET("/recent", h.GetRecentOrders)
		orders.GET("/date-range", h.GetOrdersByDateRange)
		orders.GET("/order-number/:number", h.GetOrderByNumber)
		orders.GET("/status/:status", h.GetOrdersByStatus)
		orders.GET("/payment-status/:status", h.GetOrdersByPaymentStatus)
		orders.GET("/visit/:visitId", h.GetOrdersByVisit)
		orders.GET("/doctor/:doctorId", h.GetOrdersByDoctor)
		orders.GET("/doctor/:doctorId/date-range", h.GetOrdersByDoctorDateRange)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PATCH("/:id", h.PatchOrder)
		orders.PUT("/:id", h.PatchOrder)
		orders.DELETE("/:id", staff, h.DeleteOrder)

		reports := orders.Group("/reports", staff)
		reports.GET("/total-revenue", h.GetTotalRevenue)
		reports.GET("/total-revenue/date-range", h.GetRevenueByDateRange)
		reports.GET("/doctor/:doctorId/total-revenue", h.GetDoctorRevenue)
		reports.GET("/count-by-status/:status", h.GetOrderCountByStatus)
		reports.GET("/top-products", h.GetTopSellingProducts)
	}

	api.GET("/dashboard/admin/stats", adminOnly, h.GetAdminStats)
	return nil
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
