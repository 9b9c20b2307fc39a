// Command ohmylink-server serves the ProfileEditor gRPC API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	editorv1 "github.com/and161185/ohmylink/internal/api/editorv1"
	"github.com/and161185/ohmylink/internal/config"
	"github.com/and161185/ohmylink/internal/logging"
	"github.com/and161185/ohmylink/internal/migrate"
	"github.com/and161185/ohmylink/internal/repository/postgres"
	grpcserver "github.com/and161185/ohmylink/internal/server/grpc"
	"github.com/and161185/ohmylink/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations and serves until SIGINT or SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "config file (TOML)")
	addr := flag.String("addr", "", "listen address")
	dsn := flag.String("dsn", "", "PostgreSQL DSN")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key")
	accessTTL := flag.Duration("access-ttl", 0, "access token TTL")
	maxRecords := flag.Int("max-records", 0, "max links or socials per profile")
	certFile := flag.String("tls-cert", "", "TLS certificate (PEM)")
	keyFile := flag.String("tls-key", "", "TLS private key (PEM)")
	plaintext := flag.Bool("plaintext", false, "serve without TLS (local dev only)")
	dev := flag.Bool("dev", false, "console logs and server reflection")
	mintFor := flag.String("mint-token", "", "print an access token for this user id and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	sc := cfg.Server
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			sc.Addr = *addr
		case "dsn":
			sc.DSN = *dsn
		case "jwt-key":
			sc.JWTKey = *jwtKey
		case "access-ttl":
			sc.AccessTTL = *accessTTL
		case "max-records":
			sc.MaxRecords = *maxRecords
		case "tls-cert":
			sc.TLSCert = *certFile
		case "tls-key":
			sc.TLSKey = *keyFile
		case "plaintext":
			sc.Plaintext = *plaintext
		case "dev":
			sc.Dev = *dev
		}
	})

	logger, err := logging.New(sc.LogLevel, sc.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := sc.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	tokens := service.NewTokens([]byte(sc.JWTKey), sc.AccessTTL)

	if *mintFor != "" {
		uid, err := uuid.FromString(*mintFor)
		if err != nil {
			logger.Fatal("mint token: bad user id", zap.Error(err))
		}
		tok, exp, err := tokens.Issue(uid)
		if err != nil {
			logger.Fatal("mint token", zap.Error(err))
		}
		fmt.Println(tok)
		logger.Info("token minted", zap.Stringer("user", uid), zap.Time("expires", exp))
		return
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", sc.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, sc.DSN, logger.Named("migrate")); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, sc.DSN, sc.MaxConns)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	profiles := service.NewProfileService(postgres.NewProfileRepo(db), sc.MaxRecords)

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary(tokens),
		),
	}
	if !sc.Plaintext {
		creds, err := credentials.NewServerTLSFromFile(sc.TLSCert, sc.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("serving without TLS")
	}
	s := grpc.NewServer(opts...)

	editorv1.RegisterProfileEditorServer(s, grpcserver.New(profiles, logger.Named("editor")))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if sc.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", sc.Addr), zap.Bool("tls", !sc.Plaintext))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
