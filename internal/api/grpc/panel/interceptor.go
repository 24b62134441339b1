package panel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/safehome/internal/logger"
)

// RequestIDKey is the metadata key carrying the caller's request id.
const RequestIDKey = "x-request-id"

// LoggingInterceptor scopes the logger of every call to base's logger plus
// the method and a request id, taken from metadata or generated.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var requestID, userAgent string

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDKey); len(values) > 0 {
				requestID = values[0]
			}

			if values := md.Get("user-agent"); len(values) > 0 {
				userAgent = values[0]
			}
		}

		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx = logger.ToContext(ctx, logger.FromContext(base))
		ctx = logger.WithFields(ctx, map[string]any{
			"method":     info.FullMethod,
			"request_id": requestID,
			"user_agent": userAgent,
		})

		started := time.Now()
		resp, err := handler(ctx, req)

		logger.DebugKV(ctx, "Control panel call served",
			"code", status.Code(err).String(),
			"duration", time.Since(started))

		return resp, err
	}
}
