package grpcx

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/cwrk-planet/room-relay/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// healthCheck пишется в debug, иначе пробы забивают лог
const healthCheck = "/grpc.health.v1.Health/Check"

// Unary logging + recovery + timeout guard (если у вызова нет deadline)
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
		}
		log := logger.FromContext(ctx)

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc unary panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			lvl := log.Info
			if info.FullMethod == healthCheck && err == nil {
				lvl = log.Debug
			}
			lvl("grpc unary",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"dur_ms", time.Since(start).Milliseconds(),
				"err", errString(err))
		}()

		return handler(ctx, req)
	}
}

func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		log := logger.FromContext(ss.Context())

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc stream panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			log.Info("grpc stream",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"dur_ms", time.Since(start).Milliseconds(),
				"err", errString(err))
		}()

		return handler(srv, ss)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
