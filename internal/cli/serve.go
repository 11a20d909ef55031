package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-pdf/inkwell/internal/api"
	"github.com/inkwell-pdf/inkwell/internal/app/certify"
	"github.com/inkwell-pdf/inkwell/internal/app/ledger"
	"github.com/inkwell-pdf/inkwell/internal/daemon"
	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/infra/authsvc"
	"github.com/inkwell-pdf/inkwell/internal/infra/sqlite"
	"github.com/inkwell-pdf/inkwell/internal/ops"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Inkwell HTTP server",
	Long: `Start the HTTP server: operation dispatcher, credit account
endpoints, and the payment webhook. Configuration is read from
~/.inkwell/config.toml or the file given with --config.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(resolveConfigPath())
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	led := ledger.New(db, log)
	registry, err := ops.NewRegistry(ops.Deps{
		Certify:        certify.New(db),
		CertificateTTL: cfg.CertificateTTL(),
	})
	if err != nil {
		return err
	}

	verifier := buildVerifier(cfg)
	srv := api.NewServer(cfg, registry, led, verifier, log)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("inkwell listening", "addr", addr, "data_dir", dataDir, "version", Version)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildVerifier assembles the token verifier chain from config. Static
// tokens are checked first so development setups work without an
// identity provider.
func buildVerifier(cfg *daemon.Config) domain.TokenVerifier {
	var chain authsvc.Chain
	if len(cfg.Auth.StaticTokens) > 0 {
		chain = append(chain, authsvc.StaticVerifier(cfg.Auth.StaticTokens))
	}
	if cfg.Auth.Endpoint != "" {
		chain = append(chain, authsvc.NewHTTPVerifier(cfg.Auth.Endpoint, cfg.VerifyTimeout()))
	}
	return chain
}
