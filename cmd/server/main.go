package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	rediscache "github.com/ogurasousui/codex-daily-report/internal/adapters/cache/redis"
	"github.com/ogurasousui/codex-daily-report/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-daily-report/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-daily-report/internal/adapters/token/jwt"
	"github.com/ogurasousui/codex-daily-report/internal/core/auth"
	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/password"
	"github.com/ogurasousui/codex-daily-report/internal/core/report"
	"github.com/ogurasousui/codex-daily-report/internal/platform/config"
	"github.com/ogurasousui/codex-daily-report/internal/platform/crypto"
	pg "github.com/ogurasousui/codex-daily-report/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-daily-report/internal/platform/logger"
	"github.com/ogurasousui/codex-daily-report/internal/platform/metrics"
	platformredis "github.com/ogurasousui/codex-daily-report/internal/platform/redis"
	"github.com/ogurasousui/codex-daily-report/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	isolation, err := pg.ParseIsolation(cfg.Database.Isolation)
	if err != nil {
		return err
	}
	txManager := pg.NewTransactionManager(dbPool, pg.WithIsolation(isolation))

	checks := map[string]server.HealthCheck{
		"postgres": dbPool.Ping,
	}

	var revoked auth.RevocationList
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("initialize redis client: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revoked = rediscache.NewRevocationList(redisClient.Client)
		checks["redis"] = redisClient.Health
	} else {
		log.Warn("redis url is empty; revoked tokens are kept in memory")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hasher := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	reportRepo := postgres.NewReportRepository(dbPool)

	employeeSvc := employee.NewService(employeeRepo, password.NewPolicy(hasher), nil, txManager)
	reportSvc := report.NewService(reportRepo, nil, txManager)
	authSvc := auth.NewService(employeeRepo, hasher, jwt.NewIssuer(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL), revoked, nil)

	if err := seedInitialAdmin(ctx, log, employeeSvc, cfg.InitialAdmin); err != nil {
		return err
	}

	authHandler := handler.NewAuthGrpcHandler(authSvc, m)
	employeeHandler := handler.NewEmployeeGrpcHandler(employeeSvc, m)
	reportHandler := handler.NewReportGrpcHandler(reportSvc, report.NewVisibilityGate(reportSvc), m)

	srv := server.New(
		server.Config{
			ListenAddr:      cfg.Server.ListenAddr,
			OpsListenAddr:   cfg.Server.OpsListenAddr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		log,
		server.NewOpsRouter(reg, checks),
		func(r grpc.ServiceRegistrar) {
			handler.RegisterAuthServer(r, authHandler)
			handler.RegisterEmployeeServer(r, employeeHandler)
			handler.RegisterReportServer(r, reportHandler)
		},
		grpc.ChainUnaryInterceptor(
			logger.UnaryServerInterceptor(log),
			m.UnaryServerInterceptor(),
			handler.AuthUnaryInterceptor(authSvc, m),
		),
	)

	return srv.Run(ctx)
}

// seedInitialAdmin は設定された管理者社員が存在しない場合に作成します。
func seedInitialAdmin(ctx context.Context, log *slog.Logger, svc employee.UseCase, admin config.InitialAdminConfig) error {
	if admin.Code == "" {
		return nil
	}

	name := admin.Name
	if name == "" {
		name = admin.Code
	}

	_, err := svc.CreateEmployee(ctx, employee.CreateEmployeeInput{
		Code:     admin.Code,
		Name:     name,
		Role:     employee.RoleAdmin,
		Password: admin.Password,
	})
	switch {
	case err == nil:
		log.Info("initial admin created", slog.String("code", admin.Code))
		return nil
	case errors.Is(err, employee.ErrDuplicateCode):
		return nil
	default:
		return fmt.Errorf("seed initial admin: %w", err)
	}
}
