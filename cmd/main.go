package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/habitflow-backend/internal/db"
	"github.com/yungbote/habitflow-backend/internal/gamification"
	"github.com/yungbote/habitflow-backend/internal/handlers"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/observability"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/server"
	"github.com/yungbote/habitflow-backend/internal/services"
	"github.com/yungbote/habitflow-backend/internal/sse"
	"github.com/yungbote/habitflow-backend/internal/utils"
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
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 604800, log)
	pointsPerCompletion := utils.GetEnvAsInt("POINTS_PER_COMPLETION", services.DefaultPointsPerCompletion, log)
	pointsPerLevel := utils.GetEnvAsInt("POINTS_PER_LEVEL", services.DefaultPointsPerLevel, log)

	// Tracing (no-op unless OTEL_ENABLED)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "habitflow-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Achievement rules are static; refuse to boot on a malformed table.
	rules := gamification.StreakRules()
	if err := gamification.ValidateRules(rules); err != nil {
		log.Error("Invalid achievement rules", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	habitRepo := repos.NewHabitRepo(thePG, log)
	habitStreakRepo := repos.NewHabitStreakRepo(thePG, log)
	habitLogRepo := repos.NewHabitLogRepo(thePG, log)
	achievementRepo := repos.NewAchievementRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	hub := sse.NewHub(log)

	// Event fan-out. With Redis available events go through pub/sub so
	// every replica's hub sees them; without it the hub is fed directly.
	var emitter services.Emitter = &services.HubEmitter{Hub: hub}
	eventBus, err := services.NewRedisEventBus(log)
	if err != nil {
		log.Warn("Redis unavailable, broadcasting in-process only", "error", err)
	} else {
		emitter = &services.BusEmitter{Bus: eventBus}
		if err := eventBus.StartForwarder(context.Background(), func(m sse.Message) {
			hub.Broadcast(m)
		}); err != nil {
			log.Error("Could not start event forwarder", "error", err)
			os.Exit(1)
		}
		defer eventBus.Close()
	}
	notifier := services.NewNotifier(emitter)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo, pointsPerLevel)
	habitService := services.NewHabitService(thePG, log, habitRepo, habitStreakRepo, habitLogRepo)
	completionService := services.NewCompletionService(thePG, log, habitRepo, habitStreakRepo, habitLogRepo, achievementRepo, userRepo, notifier, rules, pointsPerCompletion, pointsPerLevel)
	achievementService := services.NewAchievementService(thePG, log, achievementRepo, rules)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	habitHandler := handlers.NewHabitHandler(habitService, completionService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	realtimeHandler := handlers.NewRealtimeHandler(log, hub, notifier)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthService:        authService,
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		HabitHandler:       habitHandler,
		AchievementHandler: achievementHandler,
		RealtimeHandler:    realtimeHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
