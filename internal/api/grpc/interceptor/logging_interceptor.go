package interceptor

import (
	"context"
	"runtime/debug"
	"time"

	"rental-marketplace-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Logging returns a unary interceptor that logs method, code and duration
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if code == codes.OK {
			logger.DebugContext(ctx, "gRPC request", "method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
		} else {
			logger.WarnContext(ctx, "gRPC request failed", "method", info.FullMethod, "code", code.String(), "error", err)
		}
		return resp, err
	}
}

// Recovery converts handler panics into codes.Internal
func Recovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "Panic in gRPC handler", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
