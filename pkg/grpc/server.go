package grpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/candleshop/pkg/service"
)

// Server hosts the order and account services.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
}

func NewServer(svc *service.Service, logger *zap.Logger) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			errorInterceptor(),
			authInterceptor(svc),
		),
	)
	srv.RegisterService(&orderServiceDesc, NewOrderServer(svc))
	srv.RegisterService(&accountServiceDesc, NewAccountServer(svc))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(orderServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(accountServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: srv, health: hs, logger: logger}
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("Order service started", zap.String("address", addr))
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop marks the services as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
