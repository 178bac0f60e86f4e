package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fundgate/internal/campaign"
	"fundgate/internal/gateway"
	"fundgate/internal/handlers"
	"fundgate/internal/middleware"
	"fundgate/internal/notify"
	"fundgate/internal/otp"
	"fundgate/internal/payments"
	"fundgate/internal/storage"
	"fundgate/internal/store"
	"fundgate/internal/ticket"
	"fundgate/internal/websocket"
	"fundgate/internal/withdraw"
)

// Config holds the loaded configuration.
type Config struct {
	DSN                 string `mapstructure:"DSN"`
	Port                string `mapstructure:"PORT"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	MidtransServerKey   string `mapstructure:"MIDTRANS_SERVER_KEY"`
	MidtransProduction  bool   `mapstructure:"MIDTRANS_PRODUCTION"`
	NotifyURL           string `mapstructure:"NOTIFY_URL"`
	NotifyAPIKey        string `mapstructure:"NOTIFY_API_KEY"`
	TicketURL           string `mapstructure:"TICKET_URL"`
	TicketAPIKey        string `mapstructure:"TICKET_API_KEY"`
	SupabaseURL         string `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey  string `mapstructure:"SUPABASE_SERVICE_KEY"`
	SupabaseCoverBucket string `mapstructure:"SUPABASE_COVER_BUCKET"`
}

// loadConfig reads config.env from the working directory, with environment
// variables taking precedence.
func loadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SUPABASE_COVER_BUCKET", "covers")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func main() {
	log.Println("Starting donation platform server...")

	config, err := loadConfig()
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	db, err := sqlx.Connect("pgx", config.DSN)
	if err != nil {
		log.Fatal("cannot connect to database:", err)
	}
	defer db.Close()
	log.Println("Successfully connected to PostgreSQL!")

	st := store.New(db)

	hub := websocket.NewHub()
	go hub.Run()

	gw := gateway.NewMidtrans(config.MidtransServerKey, config.MidtransProduction)
	notifier := notify.NewClient(config.NotifyURL, config.NotifyAPIKey)
	tickets := ticket.NewClient(config.TicketURL, config.TicketAPIKey)
	images := storage.NewImages(config.SupabaseURL, config.SupabaseServiceKey, config.SupabaseCoverBucket)

	gate := otp.NewGate(st, notifier)
	pipeline := payments.NewService(gw, st, notifier, hub)
	withdrawals := withdraw.NewService(st, gate, notifier, tickets)
	campaigns := campaign.NewService(st, gate, notifier, tickets)

	authHandler := handlers.NewAuthHandler(st, config.JWTSecret)
	accountHandler := handlers.NewAccountHandler(st, gate)
	campaignHandler := handlers.NewCampaignHandler(campaigns, st, images)
	donationHandler := handlers.NewDonationHandler(pipeline)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawals)
	wsHandler := handlers.NewWebSocketHandler(st, hub)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public endpoints.
		api.GET("/campaigns", campaignHandler.List)
		api.GET("/campaigns/:id", campaignHandler.Get)
		api.POST("/campaigns/:id/donate", donationHandler.Donate)
		api.GET("/payments/verify", donationHandler.Verify)
		api.POST("/webhook/payment", donationHandler.HandlePaymentNotification)
		api.GET("/ws/:secretToken", wsHandler.ServeWs)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(config.JWTSecret))
		{
			protected.GET("/me", accountHandler.GetMyProfile)
			protected.GET("/me/summary", campaignHandler.OwnerSummary)
			protected.POST("/me/security-codes", accountHandler.IssueCode)
			protected.PUT("/me/bank-account", accountHandler.UpdateBankAccount)
			protected.PUT("/me/phone", accountHandler.UpdatePhone)
			protected.PUT("/me/tax-id", accountHandler.UpdateTaxID)

			protected.POST("/campaigns", campaignHandler.Publish)
			protected.POST("/campaigns/:id/cancel", campaignHandler.Cancel)
			protected.POST("/campaigns/:id/cover", campaignHandler.UploadCover)
			protected.GET("/campaigns/:id/donations", campaignHandler.ListDonations)
			protected.GET("/campaigns/:id/balance", withdrawalHandler.Available)

			protected.POST("/withdrawals", withdrawalHandler.Request)
			protected.GET("/withdrawals", withdrawalHandler.List)
		}
	}

	log.Println("Server starting on http://localhost:" + config.Port)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatal("could not start server:", err)
	}
}
