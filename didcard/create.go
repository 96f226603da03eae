package didcard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/did-card/internal/common"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/sirupsen/logrus"
)

// CreateInput is the user-supplied form
type CreateInput struct {
	Name        string
	Age         string
	Description string
}

// CreateResult identifies the confirmed record
type CreateResult struct {
	ID     string
	TxHash string
}

// Creator encrypts an age, submits the record and waits for confirmation
type Creator struct {
	guard     *Guard
	gate      *Gate
	store     *Store
	registry  Registry
	fhe       FHE
	board     *Board
	publisher Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// Create runs encrypt -> submit -> confirm -> refresh. Nothing is submitted
// unless encryption succeeded, and nothing is retried.
func (c *Creator) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	release, err := c.guard.TryStart()
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := c.gate.RequireReady()
	if err != nil {
		c.board.Error("Connect wallet first")
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	age, err := common.ParseAge(in.Age)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	id := common.NewRecordID(c.now())
	log := c.log.WithFields(logrus.Fields{"id": id, "account": account.Address()})
	c.board.Pending("Creating DID with FHE...")

	contract := c.registry.Address()
	encrypted, err := c.fhe.Encrypt(ctx, contract, account.Address(), age)
	if err != nil {
		return nil, c.fail(log, fmt.Errorf("failed to encrypt age: %w: %w", ErrEncryption, err))
	}

	tx, err := c.registry.CreateRecord(ctx, account, model.CreateRecordTx{
		ID:          id,
		Name:        name,
		Ciphertext:  encrypted.Handle,
		Proof:       encrypted.Proof,
		Description: in.Description,
	})
	if err != nil {
		return nil, c.fail(log, fmt.Errorf("failed to submit record: %w", err))
	}

	c.board.Pending("Processing...")
	if err := tx.Wait(ctx); err != nil {
		return nil, c.fail(log, fmt.Errorf("failed to confirm record %s: %w", tx.Hash(), err))
	}

	c.board.Success("DID created!")
	log.WithField("tx", tx.Hash()).Info("record created")

	if _, err := c.store.Refresh(ctx); err != nil {
		log.WithError(err).Warn("refresh after create failed")
	}

	event := model.Event{
		Type:       model.EventRecordCreated,
		RecordID:   id,
		Account:    account.Address(),
		TxHash:     tx.Hash(),
		OccurredAt: c.now().UTC(),
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish event")
	}

	return &CreateResult{ID: id, TxHash: tx.Hash()}, nil
}

// InFlight reports whether a creation is running
func (c *Creator) InFlight() bool {
	return c.guard.Busy()
}

func (c *Creator) fail(log *logrus.Entry, err error) error {
	log.WithError(err).Error("record creation failed")
	if errors.Is(err, ErrUserRejected) {
		c.board.Error("Transaction rejected")
	} else {
		c.board.Error("Creation failed")
	}
	if KindOf(err) == KindUnknown {
		err = fmt.Errorf("%w: %w", ErrChain, err)
	}
	return err
}
