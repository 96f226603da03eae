package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/did-card/didcard"
	_ "github.com/AlexZinkM/did-card/docs"
	"github.com/AlexZinkM/did-card/internal/api"
	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/config"
	"github.com/AlexZinkM/did-card/internal/handler"
	"github.com/AlexZinkM/did-card/internal/worker"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var connect bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Run the local HTTP API with Swagger UI at /swagger/.

The wallet password is asked once at startup. The wallet itself is unlocked
on POST /session/connect, or right away with --connect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(true)
			if err != nil {
				return err
			}

			if err := config.PromptForPassword(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := bootstrap(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			prover, err := attest.NewProver(cfg.AttestKeysDir, log)
			if err != nil {
				return err
			}

			walletHandler, err := handler.NewWalletHandler(cfg.WalletFilePath, cfg.WalletNetwork())
			if err != nil {
				return err
			}
			open := func() (didcard.Signer, error) {
				account, err := s.openAccount()
				if err != nil {
					return nil, err
				}
				return account, nil
			}
			didHandler := handler.NewDIDHandler(s.app, open, prover, log)
			defer didHandler.Close()

			if cfg.RefreshSchedule != "" {
				w, err := worker.NewRefreshWorker(s.app, cfg.RefreshSchedule, log)
				if err != nil {
					return err
				}
				w.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					w.Stop(stopCtx)
				}()
			}

			if connect {
				if err := didHandler.Open(ctx); err != nil {
					return fmt.Errorf("failed to connect wallet: %w", err)
				}
			}

			// Create and verify block until the transaction is confirmed, so only
			// the header read is bounded
			addr := fmt.Sprintf(":%s", cfg.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           api.SetupRouter(didHandler, walletHandler, log),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)
			go func() {
				log.Infof("Starting server on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&connect, "connect", false, "unlock the wallet and connect at startup")
	return cmd
}
