package main

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/attest"
	"github.com/AlexZinkM/did-card/internal/common"
	"github.com/AlexZinkM/did-card/internal/config"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Read, create and verify identity cards",
		Long: `Read, create and verify identity cards.

Every subcommand unlocks the wallet, initializes FHE and loads the records
before it runs, exactly as the HTTP API does on connect.`,
	}
	cmd.AddCommand(
		recordsListCmd(),
		recordsCreateCmd(),
		recordsVerifyCmd(),
		recordsAttestCmd(),
	)
	return cmd
}

// withSession runs fn against a connected app and disconnects afterwards
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *services) error) error {
	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}
	if err := config.PromptForPassword(); err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := bootstrap(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	disconnect, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect wallet: %w", err)
	}
	defer disconnect()

	return fn(ctx, s)
}

func recordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records with stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *services) error {
				snap, err := s.app.Refresh(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, snap)
			})
		},
	}
}

func recordsCreateCmd() *cobra.Command {
	var in didcard.CreateInput

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Encrypt an age and register a new identity card",
		Example: `  didcard records create --name Alice --age 30 --description "student card"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *services) error {
				res, err := s.app.Create(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd, model.CreateResponse{ID: res.ID, TxHash: res.TxHash})
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "card holder name")
	cmd.Flags().StringVar(&in.Age, "age", "", fmt.Sprintf("age in years (%d-%d)", common.MinAge, common.MaxAge))
	cmd.Flags().StringVar(&in.Description, "description", "", "free text")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("age")
	return cmd
}

func recordsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Publicly decrypt a card's age and record the proof on chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *services) error {
				res, err := s.app.Verify(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, model.VerifyResponse{
					ID:              args[0],
					Value:           res.Value,
					AlreadyVerified: res.AlreadyVerified,
				})
			})
		},
	}
}

func recordsAttestCmd() *cobra.Command {
	var threshold uint32

	cmd := &cobra.Command{
		Use:   "attest <id>",
		Short: "Prove a verified card's age is at least --threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *services) error {
				rec, err := s.app.Record(args[0])
				if err != nil {
					return err
				}
				prover, err := attest.NewProver(s.cfg.AttestKeysDir, s.log)
				if err != nil {
					return err
				}
				issuer, ok := s.app.Account().(attest.Signer)
				if !ok {
					return fmt.Errorf("%w: wallet cannot sign attestations", didcard.ErrNotConnected)
				}
				a, err := prover.Attest(ctx, rec, threshold, issuer)
				if err != nil {
					return err
				}
				return printJSON(cmd, a)
			})
		},
	}

	cmd.Flags().Uint32Var(&threshold, "threshold", 18, "minimum age to prove")
	return cmd
}
