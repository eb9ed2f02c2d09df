package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goalie-study/goalie-backend/internal/config"
	"github.com/goalie-study/goalie-backend/internal/db"
	"github.com/goalie-study/goalie-backend/internal/handlers"
	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/middleware"
	"github.com/goalie-study/goalie-backend/internal/observability"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/runner"
	"github.com/goalie-study/goalie-backend/internal/server"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecret := utils.GetEnv("API_JWT_SECRET", "defaultsecret", log)
	configPath := utils.GetEnv("STUDY_CONFIG_PATH", "", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)

	// Study config
	studyCfg, err := config.Load(configPath, log)
	if err != nil {
		log.Error("Could not load study config", "error", err)
		os.Exit(1)
	}

	// Tracing
	ctx := context.Background()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "goalie-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	goalRepo := repos.NewGoalRepo(thePG, log)
	taskRepo := repos.NewTaskRepo(thePG, log)
	reflectionRepo := repos.NewReflectionRepo(thePG, log)
	reflectionDraftRepo := repos.NewReflectionDraftRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	chatMessageRepo := repos.NewChatMessageRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	cohortClient := services.NewCohortClient(log)
	suggestionClient := services.NewSuggestionClient(log)
	userService := services.NewUserService(log, userRepo, cohortClient)
	goalService := services.NewGoalService(log, thePG, goalRepo, taskRepo, studyCfg.TaskLimit)
	reflectionService := services.NewReflectionService(log, thePG, reflectionRepo, reflectionDraftRepo)
	transcriptService := services.NewTranscriptService(log, chatMessageRepo)
	sessionStateService := services.NewSessionStateService(log, sessionRepo)

	// Runner
	stepRunner, err := runner.New(log, studyCfg, userService, goalService, reflectionService, transcriptService, sessionStateService, suggestionClient)
	if err != nil {
		log.Error("Flow validation failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	chatHandler := handlers.NewChatHandler(log, stepRunner, transcriptService)
	studyHandler := handlers.NewStudyHandler(log, userService, goalService, cohortClient)

	// Middleware
	log.Info("Setting up middleware from main...")
	participantMiddleware := middleware.NewParticipantMiddleware(log, userService)
	researchAuth := middleware.NewResearchAuthMiddleware(log, jwtSecret)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if allowOrigins != "" {
		origins = strings.Split(allowOrigins, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		ChatHandler:           chatHandler,
		StudyHandler:          studyHandler,
		ParticipantMiddleware: participantMiddleware,
		ResearchAuth:          researchAuth,
		AllowOrigins:          origins,
		Tracing:               observability.Enabled(),
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if otelShutdown != nil {
			_ = otelShutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
