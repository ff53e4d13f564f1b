package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DashboardService is the health service name that follows the dashboard.
const DashboardService = "dashboard"

// HealthReporter publishes grpc.health.v1 status for the daemon. Both the
// overall service and DashboardService turn NOT_SERVING while the dashboard
// error flag is set.
type HealthReporter struct {
	Addr   string
	Logger *logger.Logger

	health     *health.Server
	grpcServer *grpc.Server

	mu          sync.Mutex
	unsubscribe func()
	status      healthpb.HealthCheckResponse_ServingStatus
}

// -----------------------------------------------------------------------------

func NewHealthReporter(cfg *models.MConfig, log *logger.Logger) *HealthReporter {
	h := &HealthReporter{
		Addr:       fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort),
		Logger:     log,
		health:     health.NewServer(),
		grpcServer: grpc.NewServer(),
	}

	healthpb.RegisterHealthServer(h.grpcServer, h.health)
	reflection.Register(h.grpcServer)

	// NOT_SERVING until the first fetch completes
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// -----------------------------------------------------------------------------

// Watch follows the dashboard's error flag until Stop.
func (h *HealthReporter) Watch(dash interfaces.IDashboard) {
	unsubscribe := dash.Subscribe(h.apply)

	h.mu.Lock()
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.unsubscribe = unsubscribe
	h.mu.Unlock()

	h.apply(dash.State())
}

// -----------------------------------------------------------------------------

func (h *HealthReporter) apply(state models.MDashboardState) {
	// Loading states carry the previous cycle's outcome
	if state.Loading || (state.UpdatedAt.IsZero() && !state.HasError) {
		return
	}

	status := healthpb.HealthCheckResponse_SERVING
	if state.HasError {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.setStatus(status)
}

func (h *HealthReporter) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	changed := h.status != status
	h.status = status
	h.mu.Unlock()

	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(DashboardService, status)
	if changed && h.Logger != nil {
		h.Logger.Info("Health status: %s", status)
	}
}

// Status returns the last published status.
func (h *HealthReporter) Status() healthpb.HealthCheckResponse_ServingStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// -----------------------------------------------------------------------------

// Start listens on Addr and serves until Stop.
func (h *HealthReporter) Start() error {
	lis, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.Addr, err)
	}
	return h.Serve(lis)
}

// Serve serves on an existing listener.
func (h *HealthReporter) Serve(lis net.Listener) error {
	h.Logger.Info("gRPC health service listening on %s", lis.Addr())
	return h.grpcServer.Serve(lis)
}

// -----------------------------------------------------------------------------

// Stop detaches from the dashboard, reports NOT_SERVING to watchers, and
// stops the server.
func (h *HealthReporter) Stop() {
	h.mu.Lock()
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	h.mu.Unlock()

	h.health.Shutdown()
	h.grpcServer.GracefulStop()
}
