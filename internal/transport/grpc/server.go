package grpcx

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported by the health service next to the "" (overall) entry.
const ServiceName = "room-relay"

type Server struct {
	srv    *grpc.Server
	health *health.Server
}

func NewServer(opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	}, opts...)

	s := &Server{
		srv:    grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) GRPC() *grpc.Server { return s.srv }

func (s *Server) Serve(lis net.Listener) error {
	slog.Info("grpc listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Draining flips every service to NOT_SERVING so balancers stop routing
// new clients while websockets are being closed.
func (s *Server) Draining() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
