package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/spf13/cobra"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the registry contract is available",
		Long:  "Check whether the registry contract is available. No wallet is needed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(true)
			if err != nil {
				return err
			}
			s, err := bootstrap(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			available, err := s.app.CheckAvailability(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, model.AvailabilityResponse{Available: available})
		},
	}
}

func attestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attest",
		Short: "Work with age attestations offline",
	}
	cmd.AddCommand(attestVerifyCmd(), attestKeyCmd())
	return cmd
}

func attestVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <attestation.json>",
		Short: "Verify an attestation against its record on chain",
		Long: `Verify an attestation against its record on chain. The issuer must be the
record creator, the record must hold a verified age that meets the threshold,
and the signature and proof must check out. No wallet is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(true)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read attestation: %w", err)
			}
			var a model.Attestation
			if err := json.Unmarshal(raw, &a); err != nil {
				return fmt.Errorf("failed to parse attestation: %w", err)
			}

			s, err := bootstrap(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.app.LookupRecord(cmd.Context(), a.RecordID)
			if err != nil {
				return err
			}

			prover, err := attest.NewProver(cfg.AttestKeysDir, log)
			if err != nil {
				return err
			}
			if err := prover.Verify(a, rec); err != nil {
				return printJSON(cmd, model.AttestationCheckResponse{Valid: false, Error: err.Error()})
			}
			return printJSON(cmd, model.AttestationCheckResponse{Valid: true})
		},
	}
}

func attestKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-vk",
		Short: "Write the Groth16 verifying key to stdout",
		Long: `Write the Groth16 verifying key to stdout so third parties can check
attestation proofs without this tool. Set ATTEST_KEYS_DIR so the key is stable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(false)
			if err != nil {
				return err
			}
			prover, err := attest.NewProver(cfg.AttestKeysDir, log)
			if err != nil {
				return err
			}
			return prover.WriteVerifyingKey(cmd.OutOrStdout())
		},
	}
}
