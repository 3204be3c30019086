// Package main provides the tower server binary that serves board layouts and
// player climbs over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/questmon/internal/config"
	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/dice"
	"github.com/cory-johannsen/questmon/internal/game/monster"
	"github.com/cory-johannsen/questmon/internal/game/tower"
	"github.com/cory-johannsen/questmon/internal/observability"
	"github.com/cory-johannsen/questmon/internal/server"
	"github.com/cory-johannsen/questmon/internal/storage/postgres"
	"github.com/cory-johannsen/questmon/internal/towerserver"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrateFirst := flag.Bool("migrate", false, "apply pending migrations before serving (postgres store only)")
	healthInterval := flag.Duration("health-interval", 30*time.Second, "database health check interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting tower server",
		zap.String("grpc_addr", cfg.TowerServer.Addr()),
		zap.String("store", cfg.Tower.Store),
	)

	catalog := monster.DefaultCatalog()
	if cfg.Tower.MonstersFile != "" {
		catalog, err = monster.LoadCatalog(cfg.Tower.MonstersFile)
		if err != nil {
			logger.Fatal("loading monster catalog", zap.String("path", cfg.Tower.MonstersFile), zap.Error(err))
		}
	}
	logger.Info("monster catalog loaded", zap.Int("monsters", catalog.Len()))

	boardCfg := board.DefaultConfig()
	boardCfg.Strict = cfg.Tower.StrictPlacement
	boardCfg.Milestones = board.MilestonesFromCatalog(catalog)
	gen, err := board.NewGenerator(boardCfg, logger)
	if err != nil {
		logger.Fatal("creating board generator", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger, cfg.TowerServer.ShutdownTimeout)

	var (
		progress tower.ProgressStore
		stars    tower.StarLedger
		boards   tower.BoardStore
	)
	switch cfg.Tower.Store {
	case config.StoreMemory:
		mem := tower.NewMemoryStore()
		progress, stars, boards = mem, mem, mem
		logger.Warn("tower state is held in memory and lost on restart")
	default:
		if *migrateFirst {
			if err := postgres.MigrateUp(cfg.Database.DSN()); err != nil {
				logger.Fatal("applying migrations", zap.Error(err))
			}
			logger.Info("migrations applied")
		}

		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		progress = postgres.NewProgressRepository(pool.DB())
		stars = postgres.NewStarRepository(pool.DB())
		boards = postgres.NewBoardRepository(pool.DB())

		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				return pool.Monitor(ctx, *healthInterval, 5*time.Second, logger)
			},
			StopFn: func(context.Context) {
				pool.Close()
			},
		})
	}

	svc, err := tower.NewService(tower.Config{
		StartingDice:   cfg.Tower.StartingDice,
		ResetBonusDice: cfg.Tower.ResetBonusDice,
		RollExpression: cfg.Tower.RollExpression,
		BoardCacheSize: cfg.Tower.BoardCacheSize,
	}, gen, catalog, progress, stars, boards, dice.NewCryptoSource(), logger)
	if err != nil {
		logger.Fatal("creating tower service", zap.Error(err))
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(observability.UnaryLoggingInterceptor(logger)))
	towerserver.RegisterTowerServiceServer(grpcServer, towerserver.NewServer(svc))

	// Registered last so it stops first and drains RPCs before the pool closes.
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.TowerServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.TowerServer.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func(ctx context.Context) {
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("graceful stop timed out, closing connections")
				grpcServer.Stop()
			}
		},
	})

	logger.Info("tower server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
