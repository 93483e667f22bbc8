// Package app собирает компоненты витрины: сервер с API, метриками и
// health-проверками, а также клиентский контейнер Storefront.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/marazul/internal/backend"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/marazul/internal/health"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
	"github.com/vladislavdragonenkov/marazul/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает HTTP API, gRPC health и сервер метрик до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	storefrontMetrics := metrics.NewStorefrontMetrics()

	store := backend.NewStore(memory.NewOrderRepository())
	if cfg.SeedDemo {
		if err := backend.Seed(store); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	var publisher domain.EventPublisher = domain.NoopPublisher{}
	// Ошибка Kafka не фатальна: сервер работает без событий.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	if kafkaProducer != nil {
		publisher = kafkaProducer
	}
	defer closeKafka(kafkaProducer, logger)

	api, err := backend.NewServer(cfg.backendConfig(), store, publisher, storefrontMetrics, logger.WithField("layer", "http"))
	if err != nil {
		return fmt.Errorf("init api server: %w", err)
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("catalog", healthcheck.NewFuncChecker("catalog", func(context.Context) error {
		if cfg.SeedDemo && len(store.Categories()) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}))
	// Брокеры заданы, но продюсер не поднялся: сервер жив, события теряются.
	healthHandler.RegisterChecker("kafka", healthcheck.NewOptionalChecker("kafka", func(context.Context) error {
		if cfg.KafkaBrokers != "" && kafkaProducer == nil {
			return errors.New("kafka producer is unavailable")
		}
		return nil
	}))

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen http: %w", err)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	apiSrv := &http.Server{Handler: api.Router(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP API слушает %s", httpLis.Addr())
		if err := apiSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := func() {
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(apiSrv, logger)

		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		stop()
		return ctx.Err()
	case err := <-errCh:
		stop()
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-проверки.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
