// Package client talks to the ProfileEditor gRPC service on behalf of the editor.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	editorv1 "github.com/and161185/ohmylink/internal/api/editorv1"
	"github.com/and161185/ohmylink/internal/convert"
	"github.com/and161185/ohmylink/internal/errs"
	"github.com/and161185/ohmylink/internal/model"
	"github.com/and161185/ohmylink/internal/save"
)

// Options configure the connection.
type Options struct {
	Addr string
	// CACert is a PEM file used to verify the server; empty means system roots.
	CACert string
	// SkipVerify accepts any server certificate (dev).
	SkipVerify bool
	// Plaintext disables TLS entirely (local dev only).
	Plaintext bool
	Token      string
	Timeout    time.Duration
}

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Client implements save.Remote and editor.Loader.
type Client struct {
	cc      *grpc.ClientConn
	api     editorv1.ProfileEditorClient
	timeout time.Duration
}

var _ save.Remote = (*Client)(nil)

// Dial connects to opts.Addr. Extra dial options are appended (tests pass a bufconn dialer).
func Dial(opts Options, extra ...grpc.DialOption) (*Client, error) {
	var dopts []grpc.DialOption
	if opts.Plaintext {
		dopts = append(dopts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		creds, err := loadTLS(opts.CACert, opts.SkipVerify)
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, grpc.WithTransportCredentials(creds))
	}
	if opts.Token != "" {
		dopts = append(dopts, grpc.WithPerRPCCredentials(bearerCreds{token: opts.Token, secure: !opts.Plaintext}))
	}
	dopts = append(dopts, extra...)

	cc, err := grpc.NewClient(opts.Addr, dopts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, api: editorv1.NewProfileEditorClient(cc), timeout: opts.Timeout}, nil
}

// Close releases the connection.
func (c *Client) Close() error { return c.cc.Close() }

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// mapErr turns gRPC status codes back into domain sentinels.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w: %s", op, errs.ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %s", op, errs.ErrInvalidInput, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %w: %s", op, errs.ErrUnauthorized, st.Message())
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// LoadProfile fetches the caller's aggregate.
func (c *Client) LoadProfile(ctx context.Context) (model.Profile, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	s, err := c.api.GetProfile(ctx, &emptypb.Empty{})
	if err != nil {
		return model.Profile{}, mapErr("get profile", err)
	}
	return convert.FromProtoProfile(s)
}

// CreateRecord appends a record and returns its server id.
func (c *Client) CreateRecord(ctx context.Context, kind model.RecordKind, fields model.Fields) (save.PersistedRecord, error) {
	req, err := convert.ToProtoCreateRecord(kind, fields)
	if err != nil {
		return save.PersistedRecord{}, err
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	resp, err := c.api.CreateRecord(ctx, req)
	if err != nil {
		return save.PersistedRecord{}, mapErr("create "+string(kind), err)
	}
	id, pos, err := convert.FromProtoCreated(resp)
	if err != nil {
		return save.PersistedRecord{}, err
	}
	return save.PersistedRecord{ID: id, Position: pos}, nil
}

// UpdateRecord changes fields of a record.
func (c *Client) UpdateRecord(ctx context.Context, kind model.RecordKind, id string, fields model.Fields) error {
	req, err := convert.ToProtoUpdateRecord(kind, id, fields)
	if err != nil {
		return err
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	_, err = c.api.UpdateRecord(ctx, req)
	return mapErr("update "+string(kind), err)
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, kind model.RecordKind, id string) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	_, err := c.api.DeleteRecord(ctx, convert.ToProtoDeleteRecord(kind, id))
	return mapErr("delete "+string(kind), err)
}

// ReorderRecords rewrites a collection's order.
func (c *Client) ReorderRecords(ctx context.Context, kind model.RecordKind, ids []string) error {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	_, err := c.api.ReorderRecords(ctx, convert.ToProtoReorderRecords(kind, ids))
	return mapErr("reorder "+string(kind), err)
}

// UpdateScalarGroup writes one group of profile settings.
func (c *Client) UpdateScalarGroup(ctx context.Context, group model.ScalarGroup, fields model.Fields) error {
	req, err := convert.ToProtoScalarGroup(group, fields)
	if err != nil {
		return err
	}
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	_, err = c.api.UpdateScalarGroup(ctx, req)
	return mapErr("update "+string(group), err)
}
