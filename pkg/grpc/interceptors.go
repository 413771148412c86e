package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/example/candleshop/pkg/logger"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/service"
)

const (
	authorizationKey = "authorization"
	requestIDKey     = "x-request-id"
)

// publicMethods do not require a bearer token.
var publicMethods = map[string]bool{
	"/" + accountServiceName + "/Login": true,
}

type callerKey struct{}

func withCaller(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, callerKey{}, u)
}

func callerFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(callerKey{}).(*models.User)
	return u
}

func codeFor(kind service.Kind) codes.Code {
	switch kind {
	case service.KindValidation:
		return codes.InvalidArgument
	case service.KindUnauthorized:
		return codes.Unauthenticated
	case service.KindForbidden:
		return codes.PermissionDenied
	case service.KindNotFound:
		return codes.NotFound
	case service.KindConflict:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a gRPC status carrying the
// caller-safe message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codeFor(service.KindOf(err)), service.PublicMessage(err))
}

func loggingInterceptor(base *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		requestID := firstMetadata(ctx, requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		scoped := base.With(zap.String("request_id", requestID))
		ctx = logger.WithContext(ctx, scoped)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			scoped.Error("gRPC request", append(fields, zap.Error(err))...)
		} else {
			scoped.Info("gRPC request", fields...)
		}
		return resp, err
	}
}

func errorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, toStatus(err)
		}
		return resp, nil
	}
}

func authInterceptor(svc *service.Service) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		user, err := svc.Authenticate(ctx, bearerToken(firstMetadata(ctx, authorizationKey)))
		if err != nil {
			return nil, err
		}
		return handler(withCaller(ctx, user), req)
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
