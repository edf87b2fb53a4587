package container

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/config"
	infraCache "fulfillment-backend/internal/infrastructure/cache"
	infraDatabase "fulfillment-backend/internal/infrastructure/database"
	"fulfillment-backend/pkg/cache"
	"fulfillment-backend/pkg/logger"

	auditRepo "fulfillment-backend/internal/domains/audit/repository"
	balanceHandler "fulfillment-backend/internal/domains/balance/handler"
	balanceRepo "fulfillment-backend/internal/domains/balance/repository"
	balanceService "fulfillment-backend/internal/domains/balance/service"
	costingRepo "fulfillment-backend/internal/domains/costing/repository"
	costingService "fulfillment-backend/internal/domains/costing/service"
	idemRepo "fulfillment-backend/internal/domains/idempotency/repository"
	masterdataRepo "fulfillment-backend/internal/domains/masterdata/repository"
	movementRepo "fulfillment-backend/internal/domains/movement/repository"
	outboxRepo "fulfillment-backend/internal/domains/outbox/repository"
	outboxService "fulfillment-backend/internal/domains/outbox/service"
	reservationHandler "fulfillment-backend/internal/domains/reservation/handler"
	reservationRepo "fulfillment-backend/internal/domains/reservation/repository"
	reservationService "fulfillment-backend/internal/domains/reservation/service"
	shipmentHandler "fulfillment-backend/internal/domains/shipment/handler"
	shipmentRepo "fulfillment-backend/internal/domains/shipment/repository"
	shipmentService "fulfillment-backend/internal/domains/shipment/service"
	stockService "fulfillment-backend/internal/domains/stock/service"
	uomService "fulfillment-backend/internal/domains/uom/service"
)

// Container is the root of the dependency graph: infrastructure first, then
// repositories, services and handlers.
type Container struct {
	Config      *config.Config
	DB          *infraDatabase.PostgresDB
	Cache       cache.Cache
	AsynqClient *asynq.Client

	MasterdataRepo  masterdataRepo.RepositoryInterface
	BalanceRepo     balanceRepo.RepositoryInterface
	CostingRepo     costingRepo.RepositoryInterface
	MovementRepo    movementRepo.RepositoryInterface
	ReservationRepo reservationRepo.RepositoryInterface
	ShipmentRepo    shipmentRepo.RepositoryInterface
	OutboxRepo      outboxRepo.RepositoryInterface
	IdempotencyRepo idemRepo.RepositoryInterface
	AuditRepo       auditRepo.RepositoryInterface

	Canonicalizer     *uomService.Canonicalizer
	CostingService    *costingService.Service
	StockValidator    *stockService.Validator
	BalanceService    *balanceService.Service
	ReservationEngine *reservationService.Engine
	ShipmentPoster    *shipmentService.Poster
	OutboxPublisher   *outboxService.Publisher

	BalanceHandler     *balanceHandler.Handler
	ReservationHandler *reservationHandler.Handler
	ShipmentHandler    *shipmentHandler.Handler
}

// NewContainer builds the whole graph. Order matters: config, then
// infrastructure, then the layers on top.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	logger.Init(cfg.App.Environment)

	db := infraDatabase.NewPostgresDB(&cfg.Database)
	if err := db.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	c.DB = db

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	c.Cache = redisCache

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.MasterdataRepo = masterdataRepo.NewRepository()
	c.BalanceRepo = balanceRepo.NewRepository()
	c.CostingRepo = costingRepo.NewRepository()
	c.MovementRepo = movementRepo.NewRepository()
	c.ReservationRepo = reservationRepo.NewRepository()
	c.ShipmentRepo = shipmentRepo.NewRepository()
	c.OutboxRepo = outboxRepo.NewRepository()
	c.IdempotencyRepo = idemRepo.NewRepository()
	c.AuditRepo = auditRepo.NewRepository()

	c.Canonicalizer = uomService.NewCanonicalizer(c.MasterdataRepo)
	c.CostingService = costingService.NewService(c.CostingRepo)
	c.StockValidator = stockService.NewValidator(c.BalanceRepo)
	c.BalanceService = balanceService.NewService(
		db.Pool, c.Cache, cfg.Inventory.ATPCacheTTL, c.BalanceRepo, c.MasterdataRepo)
	c.ReservationEngine = reservationService.NewEngine(
		db.Pool, cfg.Inventory, c.Cache,
		c.ReservationRepo, c.BalanceRepo, c.MasterdataRepo,
		c.IdempotencyRepo, c.OutboxRepo, c.AuditRepo, c.Canonicalizer)
	c.ShipmentPoster = shipmentService.NewPoster(
		db.Pool, cfg.Inventory, c.Cache,
		c.ShipmentRepo, c.ReservationRepo, c.BalanceRepo, c.MasterdataRepo,
		c.MovementRepo, c.CostingService, c.StockValidator,
		c.IdempotencyRepo, c.OutboxRepo, c.AuditRepo, c.Canonicalizer)
	c.OutboxPublisher = outboxService.NewPublisher(
		db.Pool, c.OutboxRepo, outboxService.NewAsynqDeliverer(c.AsynqClient), 100)

	c.BalanceHandler = balanceHandler.NewHandler(c.BalanceService)
	c.ReservationHandler = reservationHandler.NewHandler(c.ReservationEngine)
	c.ShipmentHandler = shipmentHandler.NewHandler(c.ShipmentPoster)

	logger.Info("dependency container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

// Close releases infrastructure connections.
func (c *Container) Close() {
	if c.AsynqClient != nil {
		_ = c.AsynqClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if closer, ok := c.Cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
