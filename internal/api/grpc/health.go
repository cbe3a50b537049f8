package grpc

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/api/grpc/interceptor"
	"rental-marketplace-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const pingTimeout = 2 * time.Second

// ServiceName is the health key reported for the rental API
const ServiceName = "rental.v1.RentalMarketplace"

// HealthServer reports SERVING while the database answers pings
type HealthServer struct {
	health *health.Server
	ping   func(ctx context.Context) error
}

func NewHealthServer(ping func(ctx context.Context) error) *HealthServer {
	return &HealthServer{health: health.NewServer(), ping: ping}
}

// NewServer builds a gRPC server exposing grpc.health.v1.Health and reflection
func NewServer(h *HealthServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Recovery(), interceptor.Logging()),
	)
	healthpb.RegisterHealthServer(s, h.health)
	reflection.Register(s)
	return s
}

// Check pings the database once and publishes the result
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.ping(ctx); err != nil {
		logger.WarnContext(ctx, "Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch re-checks every interval until ctx is done
func (h *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	h.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the server stops
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
}
