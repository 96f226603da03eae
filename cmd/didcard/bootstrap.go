package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/client"
	"github.com/AlexZinkM/did-card/internal/config"
	"github.com/AlexZinkM/did-card/internal/events"
	"github.com/AlexZinkM/did-card/internal/model"
	"github.com/AlexZinkM/did-card/internal/wallet"

	"github.com/sirupsen/logrus"
)

type eventPublisher interface {
	didcard.Publisher
	Close() error
}

// services is the wired application for one process
type services struct {
	cfg       *config.Config
	log       *logrus.Logger
	registry  didcard.Registry
	relayer   *client.RelayerClient
	publisher eventPublisher
	app       *didcard.App
	closers   []func()
}

func bootstrap(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*services, error) {
	s := &services{cfg: cfg, log: log}

	registry, err := s.newRegistry(ctx)
	if err != nil {
		return nil, err
	}
	s.registry = registry

	publisher, err := s.newPublisher()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.publisher = publisher
	s.closers = append(s.closers, func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("failed to close event publisher")
		}
	})

	s.relayer = client.NewRelayerClient(cfg.RelayerURL, cfg.FHEChainID(), log)

	app, err := didcard.New(didcard.Options{
		Registry:  registry,
		FHE:       s.relayer,
		Publisher: publisher,
		Logger:    log,
		Namespace: cfg.DIDNamespace,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	s.app = app

	app.OnBanner(func(b model.Banner) {
		if b.Visible {
			log.WithField("status", b.Level).Info(b.Message)
		}
	})
	return s, nil
}

func (s *services) newRegistry(ctx context.Context) (didcard.Registry, error) {
	switch s.cfg.ChainBackend {
	case config.BackendSolana:
		r, err := client.NewSolanaRegistry(s.cfg.SolanaRPCURL, s.cfg.SolanaProgramID, s.cfg.ConfirmPollInterval, s.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create solana registry: %w", err)
		}
		return r, nil
	default:
		r, err := client.NewEVMRegistry(ctx, s.cfg.EVMRPCURL, s.cfg.ContractAddress, s.cfg.EVMChainID, s.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create evm registry: %w", err)
		}
		s.closers = append(s.closers, r.Close)
		return r, nil
	}
}

func (s *services) newPublisher() (eventPublisher, error) {
	if s.cfg.AMQPURL == "" {
		return events.NewLogPublisher(s.log), nil
	}
	p, err := events.NewRabbitPublisher(s.cfg.AMQPURL, s.cfg.AMQPExchange, s.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return p, nil
}

// openAccount unlocks the wallet with the password entered at startup
func (s *services) openAccount() (*wallet.Account, error) {
	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := config.GetWalletPasswordBytes()
	if err != nil {
		return nil, err
	}
	defer clear(passwordBytes) // Always clear password from memory

	var approver wallet.Approver = wallet.NewTerminalApprover(os.Stdin, os.Stderr)
	if s.cfg.AutoApprove {
		approver = wallet.AutoApprover{}
	}

	account, err := wallet.Open(s.cfg.WalletFilePath, passwordBytes, approver)
	if err != nil {
		return nil, err
	}
	if account.Network() != s.cfg.WalletNetwork() {
		account.Close()
		return nil, fmt.Errorf("%w: %s wallet cannot sign for the %s backend", wallet.ErrWrongNetwork, account.Network(), s.cfg.ChainBackend)
	}
	return account, nil
}

// connect unlocks the wallet and brings the session to ready
func (s *services) connect(ctx context.Context) (func(), error) {
	account, err := s.openAccount()
	if err != nil {
		return nil, err
	}
	if err := s.app.Connect(ctx, account); err != nil {
		account.Close()
		return nil, err
	}
	return func() {
		s.app.Disconnect()
		account.Close()
	}, nil
}

// Close releases connections in reverse order of creation
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
