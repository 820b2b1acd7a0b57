package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/thereayou/scrimhub/internal/config"
	"github.com/thereayou/scrimhub/internal/database"
	"github.com/thereayou/scrimhub/internal/handlers"
	"github.com/thereayou/scrimhub/internal/scrim"
	"github.com/thereayou/scrimhub/internal/voice"
	"github.com/thereayou/scrimhub/pkg/auth"
)

type Server struct {
	Router *gin.Engine
	Config *config.Config
	DB     *database.Database
	Redis  *redis.Client
	Hub    *voice.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	waitingRoom, err := uuid.Parse(cfg.WaitingRoomID)
	if err != nil {
		log.Fatalf("invalid WAITING_ROOM_ID: %v", err)
	}

	hub := voice.NewHub()
	provider := voice.NewProvider(hub, rdb, waitingRoom)
	hub.SetOfflineHandler(func(userID uuid.UUID) {
		if err := provider.ClearMember(context.Background(), userID); err != nil {
			log.Printf("Voice cleanup failed for %s: %v", userID, err)
		}
	})
	go hub.Run()

	if err := provider.EnsureWaitingRoom(context.Background()); err != nil {
		log.Fatalf("Waiting room bootstrap failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := scrim.NewService(dbConn, provider, hub, rng, cfg.RetentionDays)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	scrimH := handlers.NewScrimHandler(svc)
	adminH := handlers.NewAdminHandler(svc)
	statsH := handlers.NewStatsHandler(svc)
	wsH := handlers.NewWebSocketHandler(hub, provider)

	router := gin.Default()
	router.Use(cors.Default())
	APIEndpoints(router, authH, scrimH, adminH, statsH, wsH, jwtMgr, rdb)

	return &Server{
		Router: router,
		Config: cfg,
		DB:     dbConn,
		Redis:  rdb,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	log.Printf("Server starting on port %s", s.Config.Port)
	if err := s.Router.Run(":" + s.Config.Port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
