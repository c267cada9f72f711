package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	attendancehandler "github.com/hostelhq/hostelhq-backend/internal/attendance/handler"
	attendancerepo "github.com/hostelhq/hostelhq-backend/internal/attendance/repository"
	attendanceservice "github.com/hostelhq/hostelhq-backend/internal/attendance/service"
	"github.com/hostelhq/hostelhq-backend/internal/auth/jwt"
	billinghandler "github.com/hostelhq/hostelhq-backend/internal/billing/handler"
	billingrepo "github.com/hostelhq/hostelhq-backend/internal/billing/repository"
	billingservice "github.com/hostelhq/hostelhq-backend/internal/billing/service"
	"github.com/hostelhq/hostelhq-backend/internal/directory/consumers"
	directoryhandler "github.com/hostelhq/hostelhq-backend/internal/directory/handler"
	directoryrepo "github.com/hostelhq/hostelhq-backend/internal/directory/repository"
	directoryservice "github.com/hostelhq/hostelhq-backend/internal/directory/service"
	housinghandler "github.com/hostelhq/hostelhq-backend/internal/housing/handler"
	housingrepo "github.com/hostelhq/hostelhq-backend/internal/housing/repository"
	housingservice "github.com/hostelhq/hostelhq-backend/internal/housing/service"
	searchhandler "github.com/hostelhq/hostelhq-backend/internal/search/handler"
	searchrepo "github.com/hostelhq/hostelhq-backend/internal/search/repository"
	searchservice "github.com/hostelhq/hostelhq-backend/internal/search/service"
	visitorshandler "github.com/hostelhq/hostelhq-backend/internal/visitors/handler"
	visitorsrepo "github.com/hostelhq/hostelhq-backend/internal/visitors/repository"
	visitorsservice "github.com/hostelhq/hostelhq-backend/internal/visitors/service"
	"github.com/hostelhq/hostelhq-backend/pkg/config"
	"github.com/hostelhq/hostelhq-backend/pkg/database"
	"github.com/hostelhq/hostelhq-backend/pkg/httputil"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
	"github.com/hostelhq/hostelhq-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("hostel-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("hostel-service", cfg.Server.Environment)
	log.Info().Msg("starting Hostel Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeHostelEvents, "hostel-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	profileRepo := directoryrepo.NewProfileRepository(db)
	studentRepo := directoryrepo.NewStudentRepository(db)
	roomRepo := housingrepo.NewRoomRepository(db)
	allocationRepo := housingrepo.NewAllocationRepository(db)
	maintenanceRepo := housingrepo.NewMaintenanceRepository(db)
	feeRepo := billingrepo.NewFeeRepository(db)
	sessionRepo := attendancerepo.NewSessionRepository(db)
	recordRepo := attendancerepo.NewRecordRepository(db)
	leaveRepo := attendancerepo.NewLeaveRepository(db)
	visitorRepo := visitorsrepo.NewVisitorRepository(db)
	searchRepo := searchrepo.NewSearchRepository(db)

	// Initialize services
	directorySvc := directoryservice.NewDirectoryService(profileRepo, studentRepo, publisher, log)
	housingSvc := housingservice.NewHousingService(roomRepo, allocationRepo, maintenanceRepo, publisher, log)
	billingSvc := billingservice.NewBillingService(feeRepo, publisher, log)
	attendanceSvc := attendanceservice.NewAttendanceService(sessionRepo, recordRepo, leaveRepo, publisher, log)
	visitorSvc := visitorsservice.NewVisitorService(visitorRepo, publisher, log)
	searchSvc := searchservice.NewSearchService(searchRepo, log)

	// Initialize handlers
	profileHandler := directoryhandler.NewProfileHandler(directorySvc, log)
	studentHandler := directoryhandler.NewStudentHandler(directorySvc, log)
	roomHandler := housinghandler.NewRoomHandler(housingSvc, log)
	allocationHandler := housinghandler.NewAllocationHandler(housingSvc, log)
	maintenanceHandler := housinghandler.NewMaintenanceHandler(housingSvc, log)
	feeHandler := billinghandler.NewFeeHandler(billingSvc, log)
	attendanceHandler := attendancehandler.NewAttendanceHandler(attendanceSvc, log)
	leaveHandler := attendancehandler.NewLeaveHandler(attendanceSvc, log)
	visitorHandler := visitorshandler.NewVisitorHandler(visitorSvc, log)
	searchHandler := searchhandler.NewSearchHandler(searchSvc, log)

	// Token verification for the identity provider's Bearer tokens
	jwtManager := jwt.NewManager(&cfg.JWT)

	// Start auth event consumer
	authConsumer, err := consumers.NewAuthEventConsumer(rmq, directorySvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auth event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := authConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start auth event consumer")
	}

	// Start overdue fee scanner
	overdueScanner := billingservice.NewOverdueScanner(billingSvc, cfg.Billing.OverdueScanInterval, log)
	overdueScanner.Start(ctx)
	defer overdueScanner.Stop()

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			return strings.HasSuffix(origin, ".hostelhq.app")
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "hostel-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticate(jwtManager))

		r.Route("/profiles", func(r chi.Router) {
			r.With(httputil.RequireCapability("profiles.read", "profiles.read.own")).Get("/me", profileHandler.GetMe)
			r.With(httputil.RequireCapability("profiles.read", "profiles.read.own")).Get("/{id}", profileHandler.Get)
			r.With(httputil.RequireCapability("profiles.read")).Get("/", profileHandler.List)
			r.With(httputil.RequireCapability("profiles.update", "profiles.update.own")).Put("/{id}", profileHandler.Update)
		})

		r.Route("/students", func(r chi.Router) {
			r.With(httputil.RequireCapability("students.create")).Post("/", studentHandler.Create)
			r.With(httputil.RequireCapability("students.read", "students.read.own")).Get("/me", studentHandler.GetMe)
			r.With(httputil.RequireCapability("students.read")).Get("/", studentHandler.List)
			r.With(httputil.RequireCapability("students.read")).Get("/unallocated", studentHandler.ListUnallocated)
			r.With(httputil.RequireCapability("students.read", "students.read.own")).Get("/{id}", studentHandler.Get)
			r.With(httputil.RequireCapability("students.update")).Put("/{id}", studentHandler.Update)
			r.With(httputil.RequireCapability("students.delete")).Delete("/{id}", studentHandler.Delete)

			r.With(httputil.RequireCapability("allocations.read", "allocations.read.own")).
				Get("/{id}/allocations", allocationHandler.ListByStudent)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.With(httputil.RequireCapability("rooms.create")).Post("/", roomHandler.Create)
			r.With(httputil.RequireCapability("rooms.read")).Get("/", roomHandler.List)
			r.With(httputil.RequireCapability("rooms.read")).Get("/{id}", roomHandler.Get)
			r.With(httputil.RequireCapability("rooms.update")).Put("/{id}", roomHandler.Update)
			r.With(httputil.RequireCapability("rooms.delete")).Delete("/{id}", roomHandler.Delete)
			r.With(httputil.RequireCapability("allocations.read")).Get("/{id}/allocations", roomHandler.ListAllocations)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.With(httputil.RequireCapability("allocations.create")).Post("/", allocationHandler.Create)
			r.With(httputil.RequireCapability("allocations.release")).Delete("/{id}", allocationHandler.Release)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.With(httputil.RequireCapability("maintenance.create")).Post("/", maintenanceHandler.Create)
			r.With(httputil.RequireCapability("maintenance.read", "maintenance.read.own")).Get("/", maintenanceHandler.List)
			r.With(httputil.RequireCapability("maintenance.update")).Put("/{id}/status", maintenanceHandler.UpdateStatus)
		})

		r.Route("/fees", func(r chi.Router) {
			r.With(httputil.RequireCapability("fees.create")).Post("/", feeHandler.Create)
			r.With(httputil.RequireCapability("fees.read", "fees.read.own")).Get("/", feeHandler.List)
			r.With(httputil.RequireCapability("fees.read", "fees.read.own")).Get("/{id}", feeHandler.Get)
			r.With(httputil.RequireCapability("fees.pay")).Post("/{id}/pay", feeHandler.Pay)
			r.With(httputil.RequireCapability("fees.read", "fees.read.own")).Get("/{id}/payment", feeHandler.GetPayment)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.With(httputil.RequireCapability("attendance.manage")).Post("/sessions", attendanceHandler.GetOrCreateSession)
			r.With(httputil.RequireCapability("attendance.manage")).Post("/sessions/{id}/records", attendanceHandler.MarkAttendance)
			r.With(httputil.RequireCapability("attendance.read")).Get("/sessions/{id}/records", attendanceHandler.ListSessionRecords)
			r.With(httputil.RequireCapability("attendance.read", "attendance.read.own")).
				Get("/students/{id}/calendar", attendanceHandler.Calendar)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.With(httputil.RequireCapability("leaves.create.own")).Post("/", leaveHandler.Create)
			r.With(httputil.RequireCapability("leaves.read", "leaves.read.own")).Get("/", leaveHandler.List)
			r.With(httputil.RequireCapability("leaves.approve")).Put("/{id}/review", leaveHandler.Review)
		})

		r.Route("/visitors", func(r chi.Router) {
			r.With(httputil.RequireCapability("visitors.create")).Post("/", visitorHandler.CheckIn)
			r.With(httputil.RequireCapability("visitors.read", "visitors.read.own")).Get("/", visitorHandler.List)
			r.With(httputil.RequireCapability("visitors.read", "visitors.read.own")).Get("/{id}", visitorHandler.Get)
			r.With(httputil.RequireCapability("visitors.update")).Post("/{id}/checkout", visitorHandler.CheckOut)
		})

		r.With(httputil.RequireCapability("search.query")).Get("/search", searchHandler.Search)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop the consumer and scanner
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
