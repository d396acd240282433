package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/akanaz/exitpass-backend-go/internal/config"
	appHTTP "github.com/akanaz/exitpass-backend-go/internal/handler/http"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/clock"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/database"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/email"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/exitpass"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/jwt"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/metrics"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/qr"
	"github.com/akanaz/exitpass-backend-go/internal/repository/postgresql"
	accountService "github.com/akanaz/exitpass-backend-go/internal/service/account"
	delegationService "github.com/akanaz/exitpass-backend-go/internal/service/delegation"
	departureService "github.com/akanaz/exitpass-backend-go/internal/service/departure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, database.PoolOptions{
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	metrics.Init()

	userRepo := postgresql.NewUserRepository(db)
	requestRepo := postgresql.NewDepartureRequestRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	emailSender, err := email.NewSender(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email sender:", err)
	}
	qrEncoder := qr.NewEncoder()
	passGenerator := exitpass.NewGenerator(nil)
	systemClock := clock.System{}

	accountSvc := accountService.NewService(userRepo, auditRepo, JWTService, systemClock)
	delegationSvc := delegationService.NewService(userRepo, auditRepo, systemClock)
	departureSvc := departureService.NewService(
		userRepo,
		requestRepo,
		auditRepo,
		notificationRepo,
		emailSender,
		qrEncoder,
		passGenerator,
		systemClock,
	)

	authHandler := appHTTP.NewAuthHandler(accountSvc)
	departureHandler := appHTTP.NewDepartureHandler(departureSvc)
	delegationHandler := appHTTP.NewDelegationHandler(delegationSvc)
	accountHandler := appHTTP.NewAccountHandler(accountSvc)
	notificationHandler := appHTTP.NewNotificationHandler(notificationRepo)

	router := appHTTP.NewRouter(
		cfg,
		JWTService,
		authHandler,
		departureHandler,
		delegationHandler,
		accountHandler,
		notificationHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
