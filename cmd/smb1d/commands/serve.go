package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rangeshare/smb1d/internal/backend/httpshare"
	"github.com/rangeshare/smb1d/internal/config"
	"github.com/rangeshare/smb1d/internal/logger"
	"github.com/rangeshare/smb1d/internal/metrics"
	"github.com/rangeshare/smb1d/internal/smb1/auth"
	"github.com/rangeshare/smb1d/internal/smb1/backend"
	"github.com/rangeshare/smb1d/internal/smb1/dispatch"
	"github.com/rangeshare/smb1d/internal/smb1/handlers"
	"github.com/rangeshare/smb1d/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the smb1d server",
	Long: `Start the smb1d server in the foreground.

Examples:
  # Start with a config file
  smb1d serve --config /etc/smb1d/config.yaml

  # Override a config-file setting with an environment variable
  SMB1D_SERVER_LISTEN_ADDRESS=:1445 smb1d serve --config /etc/smb1d/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shares, err := loadShares(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load shares: %w", err)
	}

	credentials := auth.NewCredentialStore(cfg.Auth.AllowGuest)
	for _, u := range cfg.Auth.Users {
		credentials.AddUser(u.Username, u.Domain, u.Password)
	}

	serverGUID := uuid.New()
	table := handlers.NewTable([16]byte(serverGUID), cfg.Server.MaxMessageSize, cfg.Server.HostName)

	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddress, err)
	}
	logger.Info("smb1d listening", logger.ClientIP(cfg.Server.ListenAddress))

	listener := &transport.Listener{
		Table: table,
		Server: &dispatch.Server{
			Shares:      shares,
			Credentials: credentials,
			HostName:    cfg.Server.HostName,
		},
		MaxMessageSize: cfg.Server.MaxMessageSize,
		IdleTimeout:    15 * time.Minute,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
		go func() {
			logger.Info("metrics listening", logger.ClientIP(cfg.Metrics.ListenAddress))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- listener.Serve(ctx, ln)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()
		<-serveDone
	case err := <-serveDone:
		if err != nil && err != context.Canceled {
			return err
		}
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("smb1d stopped")
	return nil
}

// loadShares fetches every configured share's manifest and builds the
// backend.Share map TREE_CONNECT_ANDX resolves against.
func loadShares(ctx context.Context, cfg *config.Config) (map[string]backend.Share, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	shares := make(map[string]backend.Share, len(cfg.Shares))

	for _, sc := range cfg.Shares {
		manifest, err := httpshare.FetchManifest(ctx, client, sc.ManifestURL)
		if err != nil {
			return nil, fmt.Errorf("share %q: %w", sc.Name, err)
		}

		var authHeader http.Header
		if sc.AuthHeader != "" {
			authHeader = http.Header{"Authorization": []string{sc.AuthHeader}}
		}

		share := httpshare.NewShare(sc.Name, manifest, client, authHeader)
		shares[strings.ToUpper(sc.Name)] = share
		logger.Info("share loaded", logger.Share(sc.Name), logger.Entries(len(manifest.Entries)))
	}

	return shares, nil
}
