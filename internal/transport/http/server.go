package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/n-spicher/shipwright/internal/app"
	"github.com/n-spicher/shipwright/internal/bootstrap"
	"github.com/n-spicher/shipwright/internal/cache"
	"github.com/n-spicher/shipwright/internal/pkg/pdfextract"
	rabbitmqClient "github.com/n-spicher/shipwright/internal/platform/rabbitmq"
	"github.com/n-spicher/shipwright/internal/repository"
	"github.com/n-spicher/shipwright/internal/transport/http/handler"
	"github.com/n-spicher/shipwright/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	keywordRepo := repository.NewKeywordRepository(app.MySQL)

	keywordCache := cache.NewKeywordCache(app.Redis, time.Duration(app.Config.Redis.KeywordTTLSeconds)*time.Second)
	eventPublisher := rabbitmqClient.NewIngestEventPublisher(app.MQConn, app.Config.RabbitMQ.IngestEventQueue)

	llmTimeout := time.Duration(app.Config.LLM.TimeoutSeconds) * time.Second

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		userRepo,
		docRepo,
		keywordRepo,
		keywordCache,
		app.Gemini,
		app.Gemini,
		app.VectorStore,
		app.Config.Ingest.TopK,
		llmTimeout,
	)
	docService := appsvc.NewDocumentService(
		userRepo,
		docRepo,
		pdfextract.ExtractPagesFromBytes,
		app.Gemini,
		app.VectorStore,
		eventPublisher,
		appsvc.DocumentServiceConfig{
			ChunkSize:    app.Config.Ingest.ChunkSize,
			ChunkOverlap: app.Config.Ingest.ChunkOverlap,
			Timeout:      llmTimeout,
		},
	)
	keywordService := appsvc.NewKeywordService(userRepo, keywordRepo, keywordCache, app.Gemini, llmTimeout)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	docHandler := handler.NewDocumentHandler(docService, app.Config.Ingest.MaxPDFBytes)
	keywordHandler := handler.NewKeywordHandler(keywordService, app.Config.Ingest.MaxPDFBytes)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/ask", chatHandler.Ask)
	authed.GET("/chat-modes", chatHandler.Modes)

	authed.POST("/upload-pdf", docHandler.UploadPDF)
	authed.GET("/documents", docHandler.List)
	authed.DELETE("/documents/:id", docHandler.Delete)
	authed.DELETE("/documents", docHandler.DeleteAll)

	authed.POST("/keyword-upload", keywordHandler.Upload)
	authed.POST("/keywords", keywordHandler.Create)
	authed.GET("/keywords", keywordHandler.List)
	authed.GET("/keywords/:id", keywordHandler.Get)
	authed.PUT("/keywords/:id", keywordHandler.Update)
	authed.DELETE("/keywords/:id", keywordHandler.Delete)

	return router
}
