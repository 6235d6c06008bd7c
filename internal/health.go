package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes ask about, "" stands for the whole server.
const ServiceName = "roomlab.v1.Rooms"

// HealthWorker serves grpc.health.v1 on its own port so probes don't go through the HTTP API.
type HealthWorker struct {
	log    *slog.Logger
	addr   string
	health *health.Server
}

func NewHealthWorker(log *slog.Logger, addr string) *HealthWorker {
	return &HealthWorker{log: log, addr: addr, health: health.NewServer()}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.addr, err)
	}
	return w.Serve(ctx, listener)
}

// Serve reports SERVING until ctx is done, then NOT_SERVING while the server drains.
func (w *HealthWorker) Serve(ctx context.Context, listener net.Listener) error {
	s := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(s, w.health)
	w.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	w.health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC health server", "address", listener.Addr().String())
		if err := s.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC health server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		w.health.Shutdown()
		s.GracefulStop()
		w.log.Info("gRPC health server stopped")
		return nil
	case err := <-errChan:
		return err
	}
}
