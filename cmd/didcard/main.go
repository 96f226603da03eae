// Command didcard runs the identity card client as a local HTTP API or as one-shot commands
package main

import (
	"os"

	"github.com/AlexZinkM/did-card/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "didcard",
		Short: "FHE-backed digital identity cards",
		Long: `didcard creates identity cards whose age is stored on chain under fully
homomorphic encryption, verifies the age through public decryption and issues
offline age attestations.

Configuration is read from the environment, most importantly:
  WALLET_FILE_PATH, CHAIN_BACKEND, CONTRACT_ADDRESS or SOLANA_PROGRAM_ID, RELAYER_URL`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		serveCmd(),
		walletCmd(),
		recordsCmd(),
		probeCmd(),
		attestCmd(),
	)
	return cmd
}

// newLogger builds the JSON logger used by every component
func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// loadConfig initializes config, validating the chain backend when full is set
func loadConfig(full bool) (*config.Config, *logrus.Logger, error) {
	load := config.Load
	if full {
		load = config.Init
	}
	if err := load(); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()
	return cfg, newLogger(cfg.LogLevel), nil
}
