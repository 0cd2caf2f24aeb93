package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Config はサーバーの待ち受け設定です。
type Config struct {
	ListenAddr      string
	OpsListenAddr   string
	ShutdownTimeout time.Duration
}

// Server は gRPC サーバーと運用向け HTTP サーバーのライフサイクルを管理します。
type Server struct {
	cfg        Config
	log        *slog.Logger
	grpcServer *grpc.Server
	health     *health.Server
	ops        *http.Server
}

// New は gRPC サーバーを構築し、register でサービスを登録します。
// OpsListenAddr が空の場合、運用向け HTTP サーバーは起動しません。
func New(cfg Config, log *slog.Logger, ops http.Handler, register func(grpc.ServiceRegistrar), opts ...grpc.ServerOption) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	srv := grpc.NewServer(opts...)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	if register != nil {
		register(srv)
	}

	for name := range srv.GetServiceInfo() {
		healthSrv.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	s := &Server{
		cfg:        cfg,
		log:        log,
		grpcServer: srv,
		health:     healthSrv,
	}
	if cfg.OpsListenAddr != "" && ops != nil {
		s.ops = &http.Server{
			Addr:              cfg.OpsListenAddr,
			Handler:           ops,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return s
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は lis で gRPC を提供します。運用向け HTTP サーバーも並行して起動します。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))
		if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	if s.ops != nil {
		g.Go(func() error {
			s.log.Info("ops server listening", slog.String("addr", s.ops.Addr))
			if err := s.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve ops: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	return g.Wait()
}

func (s *Server) shutdown() {
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if s.ops != nil {
		if err := s.ops.Shutdown(ctx); err != nil {
			s.log.Warn("ops server shutdown", slog.Any("error", err))
		}
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.log.Warn("graceful stop timed out; forcing stop")
		s.grpcServer.Stop()
	}
}
