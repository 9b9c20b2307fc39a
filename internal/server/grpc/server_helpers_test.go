package grpcserver

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
)

type verifierFunc func(string) (uuid.UUID, error)

func (f verifierFunc) Verify(tok string) (uuid.UUID, error) { return f(tok) }

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	user := uuid.Must(uuid.NewV4())
	ic := AuthUnary(verifierFunc(func(tok string) (uuid.UUID, error) {
		if tok != "good" {
			return uuid.Nil, errs.ErrUnauthorized
		}
		return user, nil
	}))
	info := &grpc.UnaryServerInfo{FullMethod: "/ohmylink.editor.v1.ProfileEditor/GetProfile"}
	h := func(ctx context.Context, _ any) (any, error) {
		id, _ := UserIDFromCtx(ctx)
		return id, nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer good"))
	got, err := ic(ctx, nil, info, h)
	if err != nil || got.(uuid.UUID) != user {
		t.Fatalf("good token: %v %v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer bad"))
	if _, err := ic(ctx, nil, info, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("bad token: want Unauthenticated, got %v", err)
	}
	if _, err := ic(context.Background(), nil, info, h); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("no metadata: want Unauthenticated, got %v", err)
	}

	health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	if _, err := ic(context.Background(), nil, health, h); err != nil {
		t.Fatalf("health check must not need a token: %v", err)
	}
}

func TestToStatus(t *testing.T) {
	t.Parallel()

	s := New(nil, zaptest.NewLogger(t))
	ve := &errs.ValidationError{}
	ve.Add("title", "required")
	cases := []struct {
		err  error
		want codes.Code
	}{
		{ve, codes.InvalidArgument},
		{model.ValidateGroup(model.Profile{}, model.GroupProfile), codes.InvalidArgument},
		{errs.ErrNotFound, codes.NotFound},
		{errs.ErrUnauthorized, codes.Unauthenticated},
		{context.Canceled, codes.Canceled},
		{errors.New("pg: connection reset"), codes.Internal},
	}
	for _, c := range cases {
		if got := status.Code(s.toStatus("op", c.err)); got != c.want {
			t.Fatalf("%v: got %s, want %s", c.err, got, c.want)
		}
	}

	st := status.Convert(s.toStatus("op", ve))
	if st.Message() != ve.Error() {
		t.Fatalf("validation message not passed through: %q", st.Message())
	}
	st = status.Convert(s.toStatus("op", errors.New("pg: secret detail")))
	if st.Message() != "op failed" {
		t.Fatalf("internal detail leaked: %q", st.Message())
	}
}
