package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	grpcRouter "github.com/dtroode/accounts-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/accounts-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/accounts-server/internal/api/http/context"
	httpRouter "github.com/dtroode/accounts-server/internal/api/http/router"
	httpServer "github.com/dtroode/accounts-server/internal/api/http/server"
	"github.com/dtroode/accounts-server/internal/config"
	"github.com/dtroode/accounts-server/internal/identity/firebase"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/password"
	"github.com/dtroode/accounts-server/internal/repository/memory"
	"github.com/dtroode/accounts-server/internal/repository/mongo"
	"github.com/dtroode/accounts-server/internal/repository/postgres"
	"github.com/dtroode/accounts-server/internal/server"
	"github.com/dtroode/accounts-server/internal/service"
	"github.com/dtroode/accounts-server/internal/storage/minio"
	"github.com/dtroode/accounts-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	// A missing .env is fine, the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if cfg.InsecureSecret() {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the built-in development secret")
	}

	users, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize user store", "driver", cfg.Database.Driver, "error", err)
	}
	defer closeStore()

	hasher, err := password.New(cfg.PasswordParams())
	if err != nil {
		logger.Fatal("failed to create password hasher", "error", err)
	}

	tokenManager, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		logger.Fatal("failed to create token manager", "error", err)
	}

	verifier := firebase.FromConfig(ctx, firebase.Config{
		CredentialsFile: cfg.Firebase.CredentialsFile,
		ProjectID:       cfg.Firebase.ProjectID,
		Timeout:         cfg.Firebase.Timeout,
	}, logger)

	var storage model.Storage
	if cfg.Storage.Enabled {
		storage, err = minio.New(ctx, minio.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
	} else {
		logger.Info("object storage disabled, profile picture uploads are unavailable")
	}

	accounts, err := service.NewAccounts(users, hasher, tokenManager, verifier, storage, logger, service.Options{
		TokenTTL:     cfg.JWT.TTL,
		StoreTimeout: cfg.Database.Timeout,
	})
	if err != nil {
		logger.Fatal("failed to create accounts service", "error", err)
	}

	handler := httpRouter.New(accounts, httpctx.NewManager(), logger, httpRouter.Options{
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		MaxUploadBytes:     cfg.HTTP.MaxUploadBytes,
	}).Register()

	servers := []model.Server{
		httpServer.NewHTTPServer(handler, fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout),
	}
	if cfg.GRPC.Enabled {
		s := grpcRouter.New(accounts, logger).Register()
		servers = append(servers, grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port)))
	}

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "server", s.Name(), "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "server", s.Name(), "error", err)
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "server", s.Name(), "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// openUserStore connects the configured driver and returns a function
// releasing its resources.
func openUserStore(ctx context.Context, cfg *config.Config) (model.UserStore, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(conn.DB), func() { _ = conn.Close() }, nil

	case config.DriverMongo:
		conn, err := mongo.NewConnection(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabase, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
			defer cancel()
			_ = conn.Close(closeCtx)
		}
		return mongo.NewUserRepository(conn), closeFn, nil

	case config.DriverMemory:
		return memory.NewUserRepository(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
