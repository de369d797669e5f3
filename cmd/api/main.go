package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"partystream/internal/config"
	"partystream/internal/database"
	"partystream/internal/domain"
	"partystream/internal/middleware"
	"partystream/internal/modules/auth"
	"partystream/internal/modules/booking"
	"partystream/internal/modules/chat"
	"partystream/internal/modules/dj"
	"partystream/internal/modules/payment"
	"partystream/internal/modules/stream"
	"partystream/internal/payments"
	jwtsvc "partystream/internal/pkg/jwt"
	"partystream/internal/repository"
	"partystream/internal/streaming"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewDJProfileRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	streamRepo := repository.NewStreamRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	paymentClient := payments.NewClient(cfg.PaymentAPIBase, cfg.PaymentAPIKey, cfg.PaymentWebhookSecret)
	streamingClient := streaming.NewClient(cfg.StreamingAPIBase, cfg.StreamingAPIKey)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	djService := dj.NewService(profileRepo)
	djHandler := dj.NewHandler(djService)

	bookingService := booking.NewService(bookingRepo, profileRepo)
	bookingHandler := booking.NewHandler(bookingService)

	streamService := stream.NewService(streamRepo, bookingRepo, bookingRepo, profileRepo, streamingClient, log.Printf)
	streamHandler := stream.NewHandler(streamService)

	paymentService := payment.NewService(paymentRepo, bookingRepo, bookingRepo, userRepo, profileRepo,
		paymentClient, cfg.ServiceFeePercent, log.Printf)
	paymentHandler := payment.NewHandler(paymentService)

	hub := chat.NewHub()
	defer hub.Close()
	chatService := chat.NewService(chatRepo, bookingRepo, profileRepo, userRepo, log.Printf)
	chatHandler := chat.NewHandler(chatService, hub)
	wsHandler := chat.NewWSHandler(hub, j, chatService)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public, rate limited by client IP
		public := v1.Group("/")
		public.Use(limiter.Middleware())
		authHandler.RegisterPublicRoutes(public)
		djHandler.RegisterPublicRoutes(public)
		paymentHandler.RegisterWebhookRoute(public)

		// The limiter runs after JWTAuth here so it keys windows by the
		// authenticated user, not the shared client IP.
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j), limiter.Middleware())
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected, middleware.RequireAnyRole(domain.RoleHost, domain.RoleAdmin))
			streamHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected, middleware.AdminOnly())
			chatHandler.RegisterRoutes(protected)

			djOnly := protected.Group("/")
			djOnly.Use(middleware.RequireRole(domain.RoleDJ))
			djHandler.RegisterDJRoutes(djOnly)
		}
	}

	// Socket handshake authenticates via query token, not the bearer
	// middleware.
	r.GET("/api/v1/ws/chat", wsHandler.HandleWebSocket)

	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
