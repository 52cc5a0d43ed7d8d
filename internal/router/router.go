package router

import (
	"time"

	"github.com/giulianopoliti/stockai/internal/config"
	"github.com/giulianopoliti/stockai/internal/handler"
	"github.com/giulianopoliti/stockai/internal/infra"
	"github.com/giulianopoliti/stockai/internal/middleware"
	"github.com/giulianopoliti/stockai/internal/repository"
	"github.com/giulianopoliti/stockai/internal/service"
	"github.com/giulianopoliti/stockai/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← storage/Redis.
// db and rdb may be nil (JSON store, no redis): the optional collaborators
// degrade to their fallback paths.
func New(cfg *config.Config, repo repository.CatalogoRepository, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var ia service.ColaboradorIA
	if cfg.IAAPIKey != "" {
		ia = infra.NewIAClient(cfg.IAAPIURL, cfg.IAAPIKey, cfg.IAModel)
	}
	var ocr service.LectorDocumentos
	if cfg.OCRSidecarURL != "" {
		ocr = infra.NewOCRClient(cfg.OCRSidecarURL)
	}
	var locker *redislock.Client
	var dispatcher service.AlertaDispatcher
	if rdb != nil {
		locker = redislock.New(rdb)
		dispatcher = worker.NewDispatcher(rdb)
	}

	tasaBase := decimal.NewFromFloat(cfg.DefaultTaxRate)

	// ── Services ─────────────────────────────────────────────────────────────
	resolverSvc := service.NewProveedorResolver(repo)
	extractorSvc := service.NewExtractorService(ia)
	matcherSvc := service.NewMatcherService(ia)
	stockSvc := service.NewStockService(repo, locker, dispatcher)
	procesoSvc := service.NewProcesoService(repo, resolverSvc, extractorSvc, matcherSvc, stockSvc, ia, ocr, tasaBase)

	// ── Handlers ─────────────────────────────────────────────────────────────
	procesoH := handler.NewProcesoHandler(procesoSvc)
	stockH := handler.NewStockHandler(stockSvc, procesoSvc, resolverSvc, tasaBase)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	r.POST("/process-invoice", procesoH.ProcessInvoice)
	r.POST("/process-text", procesoH.ProcessText)
	r.POST("/process-audio", procesoH.ProcessAudio)

	api := r.Group("/api")
	{
		api.GET("/stock", stockH.GetStock)
		api.PUT("/stock", stockH.UpdateStock)
		api.GET("/proveedores", stockH.GetProveedores)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
