// Package grpcserver exposes the ProfileEditor gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	editorv1 "github.com/and161185/ohmylink/internal/api/editorv1"
	"github.com/and161185/ohmylink/internal/convert"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/service"
)

// Server wires the profile service into gRPC handlers.
type Server struct {
	editorv1.UnimplementedProfileEditorServer
	profiles service.ProfileService
	log      *zap.Logger
}

// New constructs the handler set.
func New(profiles service.ProfileService, log *zap.Logger) *Server {
	return &Server{profiles: profiles, log: log}
}

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

// AuthUnary rejects editor calls without a valid bearer token and stores the caller in the context.
// Other services (health, reflection) pass through.
func AuthUnary(v Verifier) grpc.UnaryServerInterceptor {
	prefix := "/" + editorv1.ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return next(ctx, req)
		}
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		id, err := v.Verify(tok)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return next(WithUserID(ctx, id), req)
	}
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}

// toStatus maps service errors onto status codes. Validation messages are passed through
// so the editor can show them; anything else is logged and hidden.
func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	s.log.Error("request failed", zap.String("op", op), zap.Error(err))
	return status.Errorf(codes.Internal, "%s failed", op)
}

// GetProfile returns the caller's aggregate, seeding it on first access.
func (s *Server) GetProfile(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, s.toStatus("get profile", err)
	}
	out, err := convert.ToProtoProfile(p)
	if err != nil {
		return nil, s.toStatus("get profile", err)
	}
	return out, nil
}

// CreateRecord appends a link or social link.
func (s *Server) CreateRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := convert.FromProtoRecordRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	id, pos, err := s.profiles.CreateRecord(ctx, userID, req.Kind, req.Fields)
	if err != nil {
		return nil, s.toStatus("create "+string(req.Kind), err)
	}
	return convert.ToProtoCreated(id, pos), nil
}

// UpdateRecord changes fields of one record.
func (s *Server) UpdateRecord(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := convert.FromProtoRecordRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	if err := s.profiles.UpdateRecord(ctx, userID, req.Kind, req.ID, req.Fields); err != nil {
		return nil, s.toStatus("update "+string(req.Kind), err)
	}
	return &emptypb.Empty{}, nil
}

// DeleteRecord removes one record.
func (s *Server) DeleteRecord(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := convert.FromProtoRecordRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	if err := s.profiles.DeleteRecord(ctx, userID, req.Kind, req.ID); err != nil {
		return nil, s.toStatus("delete "+string(req.Kind), err)
	}
	return &emptypb.Empty{}, nil
}

// ReorderRecords rewrites a collection's order.
func (s *Server) ReorderRecords(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := convert.FromProtoRecordRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	if err := s.profiles.ReorderRecords(ctx, userID, req.Kind, req.IDs); err != nil {
		return nil, s.toStatus("reorder "+string(req.Kind), err)
	}
	return &emptypb.Empty{}, nil
}

// UpdateScalarGroup writes one group of profile settings.
func (s *Server) UpdateScalarGroup(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	g, f, err := convert.FromProtoScalarGroup(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	if err := s.profiles.UpdateScalarGroup(ctx, userID, g, f); err != nil {
		return nil, s.toStatus("update "+string(g), err)
	}
	return &emptypb.Empty{}, nil
}
