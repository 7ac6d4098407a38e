package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tablelens/internal/session"
	"github.com/KaramelBytes/tablelens/internal/web"
)

var (
	srvAddr string
	srvLoad string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis session over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, addr, err := newServer(cmd)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// Graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-sigCh:
		}

		logger.Info("shutting down...")
		timeout := 10 * time.Second
		if cfg != nil && cfg.ShutdownTimeoutSec > 0 {
			timeout = time.Duration(cfg.ShutdownTimeoutSec) * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

// newServer builds the session and HTTP server from config and flags.
func newServer(cmd *cobra.Command) (*web.Server, string, error) {
	opt, err := loadOptions(cmd)
	if err != nil {
		return nil, "", err
	}
	sess := session.New(initialState(), opt, logger)
	if srvLoad != "" {
		f, err := os.Open(srvLoad)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", srvLoad, err)
		}
		defer f.Close()
		if _, err := sess.Upload(srvLoad, f); err != nil {
			return nil, "", err
		}
	}

	addr := ":8080"
	var maxUpload int64
	if cfg != nil {
		addr = cfg.ServerAddr
		maxUpload = cfg.MaxUploadBytes
	}
	if cmd.Flags().Changed("addr") {
		addr = srvAddr
	}
	return web.NewServer(sess, logger, web.Options{MaxUploadBytes: maxUpload}), addr, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", ":8080", "listen address (overrides server_addr)")
	serveCmd.Flags().StringVar(&srvLoad, "load", "", "optional file to load before serving")
}
