package grpcserver

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// levelFor picks the log level of a finished call: server faults are errors,
// caller mistakes are warnings.
func levelFor(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK, codes.Canceled:
		return zapcore.InfoLevel
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LoggingUnary logs every finished call at a level chosen by its status code.
// Payloads are never logged; profile fields are user content.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		note := &callNote{}
		resp, err := next(context.WithValue(ctx, noteKey, note), req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		ce := log.Check(levelFor(code), "rpc finished")
		if ce == nil {
			return resp, err
		}
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Stringer("code", code),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		}
		if note.user != uuid.Nil {
			fields = append(fields, zap.Stringer("user", note.user))
		}
		ce.Write(fields...)
		return resp, err
	}
}

// RecoverUnary turns a handler panic into codes.Internal and logs it with the stack.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("handler panic",
				zap.String("method", info.FullMethod),
				zap.Any("reason", r),
				zap.Stack("stack"),
			)
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}()
		return next(ctx, req)
	}
}
