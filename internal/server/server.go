package server

import (
	"net/http"

	"backend/internal/config"
	"backend/internal/crypto"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/telegram_bot"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
	log    *logrus.Logger
	tokens service.TokenStore
	cipher *crypto.Cipher
	bot    *telegram_bot.Bot
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger, log *logrus.Logger, tokens service.TokenStore, cipher *crypto.Cipher, bot *telegram_bot.Bot) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
		log:    log,
		tokens: tokens,
		cipher: cipher,
		bot:    bot,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Repositories
	userRepo := repository.NewUserRepository(s.db, s.log)
	verificationRepo := repository.NewVerificationRepository(s.db, s.logger)
	permissionRepo := repository.NewPermissionRepository(s.db, s.logger)
	requestRepo := repository.NewChildDataRequestRepository(s.db, s.logger)
	chatRepo := repository.NewChatRepository(s.db, s.logger)
	reviewRepo := repository.NewReviewRepository(s.db, s.logger)

	// Services
	authService := service.NewAuthService(userRepo, s.tokens, s.logger)
	matchingService := service.NewMatchingService(userRepo, verificationRepo, s.logger)
	requestService := service.NewAccessRequestService(requestRepo, permissionRepo, userRepo, s.logger)
	verificationService := service.NewVerificationService(userRepo, verificationRepo, permissionRepo, s.cipher, s.logger)
	reviewService := service.NewReviewService(reviewRepo, userRepo, s.logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, s.log)
	userHandler := handler.NewUserHandler(userRepo, matchingService, s.cfg, s.logger)
	chatHandler := handler.NewChatHandler(chatRepo, s.logger)
	verificationHandler := handler.NewVerificationHandler(verificationService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)

	// A nil *Bot must stay a nil interface for the handler's check.
	var notifier handler.TelegramBot
	if s.bot != nil {
		notifier = s.bot
	}
	requestHandler := handler.NewAccessRequestHandler(requestService, userRepo, s.logger, notifier)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(s.tokens, s.logger))
	{
		authRequired.POST("/auth/logout", authHandler.Logout)

		authRequired.GET("/me", userHandler.GetMe)
		authRequired.PUT("/me", userHandler.UpdateMe)
		authRequired.GET("/me/viewers", requestHandler.GetViewers)
		authRequired.GET("/matches", userHandler.GetMatches)

		authRequired.GET("/users/:id", userHandler.GetUser)
		authRequired.GET("/users/:id/match", userHandler.GetMatchWith)
		authRequired.GET("/users/:id/can-view", requestHandler.CanView)
		authRequired.GET("/users/:id/children", verificationHandler.GetChildrenData)
		authRequired.GET("/users/:id/reviews", reviewHandler.GetReviews)
		authRequired.POST("/users/:id/reviews", reviewHandler.AddReview)

		authRequired.GET("/chats", chatHandler.GetMyChats)
		authRequired.GET("/chats/with/:id", chatHandler.GetChatWith)
		authRequired.POST("/chats/with/:id", chatHandler.SendMessage)

		authRequired.POST("/child-data-requests", requestHandler.CreateRequest)
		authRequired.GET("/child-data-requests/pending", requestHandler.GetPendingRequests)
		authRequired.POST("/child-data-requests/:id/accept", requestHandler.AcceptRequest)
		authRequired.POST("/child-data-requests/:id/decline", requestHandler.DeclineRequest)

		authRequired.POST("/verification", verificationHandler.Submit)
		authRequired.GET("/verification/activities", verificationHandler.GetActivityCatalog)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
