package didcard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/sirupsen/logrus"
)

// Verification is the outcome of a successful Verify call.
// Value is nil when the record had already been verified.
type Verification struct {
	ID              string
	Handle          []byte
	TxHash          string
	Value           *uint32
	AlreadyVerified bool
}

// Verifier publicly decrypts a record's age and records the proof on chain
type Verifier struct {
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

// Verify fetches the handle, runs proof verification with an on-chain submit
// callback and returns the clear value for that exact handle.
// Re-verifying an already verified record is not an error.
func (v *Verifier) Verify(ctx context.Context, id string) (*Verification, error) {
	release, err := v.guard.TryStart()
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := v.gate.RequireReady()
	if err != nil {
		return nil, err
	}

	log := v.log.WithFields(logrus.Fields{"id": id, "account": account.Address()})
	v.board.Pending("Verifying...")

	handle, err := v.registry.EncryptedHandle(ctx, id)
	if err != nil {
		return v.fail(ctx, log, id, fmt.Errorf("failed to get encrypted handle: %w", err))
	}

	var txHash string
	submit := func(ctx context.Context, clearValues, proof []byte) error {
		tx, err := v.registry.SubmitVerification(ctx, account, id, clearValues, proof)
		if err != nil {
			return fmt.Errorf("failed to submit verification: %w", err)
		}
		txHash = tx.Hash()
		if err := tx.Wait(ctx); err != nil {
			return fmt.Errorf("failed to confirm verification %s: %w", tx.Hash(), err)
		}
		return nil
	}

	contract := v.registry.Address()
	clearValues, err := v.fhe.VerifyDecryption(ctx, [][]byte{handle}, contract, submit)
	if err != nil {
		return v.fail(ctx, log, id, err)
	}

	// The submission is confirmed at this point, so refresh whatever the result
	if _, err := v.store.Refresh(ctx); err != nil {
		log.WithError(err).Warn("refresh after verify failed")
	}

	raw, ok := clearValues[HandleKey(handle)]
	if !ok {
		return v.fail(ctx, log, id, fmt.Errorf("%w: no clear value for handle %s", ErrVerification, HandleKey(handle)))
	}
	if raw > math.MaxUint32 {
		return v.fail(ctx, log, id, fmt.Errorf("%w: clear value %d out of range", ErrVerification, raw))
	}
	value := uint32(raw)

	v.board.Success("Age verified!")
	log.WithField("tx", txHash).Info("record verified")

	event := model.Event{
		Type:       model.EventRecordVerified,
		RecordID:   id,
		Account:    account.Address(),
		TxHash:     txHash,
		Value:      &value,
		OccurredAt: v.now().UTC(),
	}
	if err := v.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish event")
	}

	return &Verification{ID: id, Handle: handle, TxHash: txHash, Value: &value}, nil
}

// InFlight reports whether a verification is running
func (v *Verifier) InFlight() bool {
	return v.guard.Busy()
}

// fail maps already-verified to a success outcome and everything else to an error banner
func (v *Verifier) fail(ctx context.Context, log *logrus.Entry, id string, err error) (*Verification, error) {
	if errors.Is(err, ErrAlreadyVerified) {
		log.Info("record already verified")
		v.board.Success("Already verified")
		if _, rerr := v.store.Refresh(ctx); rerr != nil {
			log.WithError(rerr).Warn("refresh after verify failed")
		}
		return &Verification{ID: id, AlreadyVerified: true}, nil
	}

	log.WithError(err).Error("verification failed")
	v.board.Error("Verification failed")
	if KindOf(err) == KindUnknown {
		err = fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil, err
}
