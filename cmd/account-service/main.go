package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/app"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/config"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/controllers"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/repositories"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/routes"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/services"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils/payment"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils/search"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Logger.Fatal("Failed to load config:", err)
	}
	if err := cfg.Require(config.CapabilityPayments, config.CapabilitySearch); err != nil {
		utils.Logger.Fatal("Incomplete config for account-service:", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	store := repositories.NewStore(application.DB)
	payments := payment.NewStripePlatform(cfg.StripeSecretKey, cfg.AppName)
	searchClient := search.NewSearchClient(cfg.MeilisearchHost, cfg.MeilisearchAPIKey)

	// Services
	deletionService := services.NewAccountDeletionService(store, payments, searchClient)

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	accountController := controllers.NewAccountController(deletionService, cfg.Location)

	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.AccountDelete, accountController.DeleteAccountHandler).Methods(http.MethodDelete)

	allowedOrigins := []string{cfg.AppUrl}
	if cfg.Env != constants.EnvProd {
		allowedOrigins = append(allowedOrigins, constants.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Logger.Infof("Starting %s account-service on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Failed to start server:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Graceful shutdown failed")
	}
	utils.Logger.Info("account-service stopped")
}
