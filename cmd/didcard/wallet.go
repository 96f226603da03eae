package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexZinkM/did-card/internal/config"
	"github.com/AlexZinkM/did-card/internal/crypto"
	"github.com/AlexZinkM/did-card/internal/model"
	"github.com/AlexZinkM/did-card/internal/wallet"

	"github.com/spf13/cobra"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the encrypted .cwt wallet file at WALLET_FILE_PATH",
	}
	cmd.AddCommand(
		walletGenerateCmd(),
		walletShowCmd(),
		walletRekeyCmd(),
	)
	return cmd
}

func walletGenerateCmd() *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key and save it encrypted",
		Long: `Generate a new key and save it to WALLET_FILE_PATH, encrypted with a password.

The network defaults to the one CHAIN_BACKEND signs with. An existing
non-empty file is never overwritten.`,
		Example: `  # Key for the configured backend
  didcard wallet generate

  # Solana key regardless of CHAIN_BACKEND
  didcard wallet generate --network solana`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(false)
			if err != nil {
				return err
			}
			if network == "" {
				network = cfg.WalletNetwork()
			}

			password, err := readNewPassword()
			if err != nil {
				return err
			}
			defer clear(password)

			address, err := wallet.Generate(cfg.WalletFilePath, network, password)
			if err != nil {
				return err
			}
			return printJSON(cmd, model.GenerateResponse{
				Success: true,
				Message: "Wallet generated successfully",
				Network: network,
				Address: address,
			})
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "key type: solana or ethereum")
	return cmd
}

func walletShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the wallet network and address without unlocking it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(false)
			if err != nil {
				return err
			}
			header, err := crypto.ReadWalletHeader(cfg.WalletFilePath)
			if err != nil {
				return err
			}
			return printJSON(cmd, header)
		},
	}
}

func walletRekeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rekey",
		Short: "Re-encrypt the wallet under a new password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(false)
			if err != nil {
				return err
			}

			oldPassword, err := config.ReadPassword("Current wallet password: ")
			if err != nil {
				return err
			}
			defer clear(oldPassword)

			newPassword, err := readNewPassword()
			if err != nil {
				return err
			}
			defer clear(newPassword)

			if err := crypto.ReencryptWallet(cfg.WalletFilePath, oldPassword, newPassword); err != nil {
				return err
			}
			log.WithField("file", cfg.WalletFilePath).Info("wallet re-encrypted")
			return nil
		},
	}
}

// readNewPassword asks for a password twice
func readNewPassword() ([]byte, error) {
	password, err := config.ReadPassword("New wallet password: ")
	if err != nil {
		return nil, err
	}
	if len(password) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	confirm, err := config.ReadPassword("Repeat password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if string(password) != string(confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
