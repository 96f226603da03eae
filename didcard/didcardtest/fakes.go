// Package didcardtest provides in-memory collaborators for exercising didcard
package didcardtest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/model"
)

// Signer is a bare account
type Signer struct {
	Addr string
}

func (s Signer) Address() string { return s.Addr }

// Tx is a pending transaction whose Wait runs a callback
type Tx struct {
	hash string
	wait func(ctx context.Context) error
}

func (t *Tx) Hash() string { return t.hash }

func (t *Tx) Wait(ctx context.Context) error { return t.wait(ctx) }

// Submission is one recorded SubmitVerification call
type Submission struct {
	ID          string
	ClearValues []byte
	Proof       []byte
}

// Registry is an in-memory contract.
// Writes only become visible once their transaction's Wait returns.
type Registry struct {
	mu      sync.Mutex
	records map[string]*model.Record
	order   []string
	handles map[string][]byte
	seq     int

	Contract     string
	Available    bool
	AvailableErr error
	ListErr      error
	RecordErr    map[string]error
	CreateErr    error
	SubmitErr    error
	WaitErr      error
	// WaitBlock, if set, holds every Wait until it is closed
	WaitBlock chan struct{}

	Created   []model.CreateRecordTx
	Submitted []Submission
	ListCalls int
}

// NewRegistry creates an empty registry at contract
func NewRegistry(contract string) *Registry {
	return &Registry{
		records:   map[string]*model.Record{},
		handles:   map[string][]byte{},
		RecordErr: map[string]error{},
		Contract:  contract,
		Available: true,
	}
}

// AddRecord stores rec directly with its encrypted handle
func (r *Registry) AddRecord(rec model.Record, handle []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = &rec
	r.handles[rec.ID] = handle
}

// Record returns the stored record, verified or not
func (r *Registry) Record(id string) (model.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return model.Record{}, false
	}
	return *rec, true
}

func (r *Registry) Address() string { return r.Contract }

func (r *Registry) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListCalls++
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	return append([]string{}, r.order...), nil
}

func (r *Registry) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.RecordErr[id]; err != nil {
		return nil, err
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", didcard.ErrNotFound, id)
	}
	out := *rec
	return &out, nil
}

func (r *Registry) EncryptedHandle(ctx context.Context, id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", didcard.ErrNotFound, id)
	}
	return handle, nil
}

func (r *Registry) IsAvailable(ctx context.Context) (bool, error) {
	return r.Available, r.AvailableErr
}

func (r *Registry) CreateRecord(ctx context.Context, signer didcard.Signer, tx model.CreateRecordTx) (didcard.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	r.Created = append(r.Created, tx)

	return r.newTx(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.records[tx.ID]; ok {
			return fmt.Errorf("%w: record %s already exists", didcard.ErrChain, tx.ID)
		}
		r.order = append(r.order, tx.ID)
		r.records[tx.ID] = &model.Record{
			ID:           tx.ID,
			Name:         tx.Name,
			Description:  tx.Description,
			Creator:      signer.Address(),
			Timestamp:    time.Now().Unix(),
			PublicValue1: tx.PublicValue1,
			PublicValue2: tx.PublicValue2,
		}
		r.handles[tx.ID] = tx.Ciphertext
		return nil
	}), nil
}

func (r *Registry) SubmitVerification(ctx context.Context, signer didcard.Signer, id string, clearValues, proof []byte) (didcard.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SubmitErr != nil {
		return nil, r.SubmitErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", didcard.ErrNotFound, id)
	}
	if rec.IsVerified {
		return nil, fmt.Errorf("execution reverted: %w", didcard.ErrAlreadyVerified)
	}
	if len(clearValues) < 32 {
		return nil, fmt.Errorf("%w: clear values too short", didcard.ErrVerification)
	}
	r.Submitted = append(r.Submitted, Submission{ID: id, ClearValues: clearValues, Proof: proof})
	value := binary.BigEndian.Uint32(clearValues[28:32])

	return r.newTx(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		rec.IsVerified = true
		rec.DecryptedValue = &value
		return nil
	}), nil
}

// newTx must be called with r.mu held
func (r *Registry) newTx(apply func() error) *Tx {
	r.seq++
	hash := fmt.Sprintf("0xtx%d", r.seq)
	return &Tx{hash: hash, wait: func(ctx context.Context) error {
		r.mu.Lock()
		block, waitErr := r.WaitBlock, r.WaitErr
		r.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if waitErr != nil {
			return waitErr
		}
		return apply()
	}}
}

// FHE encrypts by remembering plaintexts behind random-looking handles
type FHE struct {
	mu    sync.Mutex
	plain map[string]uint32
	seq   int

	InitErr    error
	EncryptErr error
	DecryptErr error
	// InitBlock, if set, holds Initialize until it is closed
	InitBlock chan struct{}
	// OverrideClear replaces the computed result of VerifyDecryption
	OverrideClear map[string]uint64

	InitCalls int
	Encrypted []uint32
}

// NewFHE creates an FHE fake with no known handles
func NewFHE() *FHE {
	return &FHE{plain: map[string]uint32{}}
}

// Seed makes handle decrypt to value
func (f *FHE) Seed(handle []byte, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plain[didcard.HandleKey(handle)] = value
}

// Inits returns how many times Initialize was called
func (f *FHE) Inits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InitCalls
}

func (f *FHE) Initialize(ctx context.Context) error {
	f.mu.Lock()
	f.InitCalls++
	block, err := f.InitBlock, f.InitErr
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FHE) Encrypt(ctx context.Context, contract, account string, value uint32) (*model.EncryptedInput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EncryptErr != nil {
		return nil, f.EncryptErr
	}
	f.seq++
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%d", contract, account, value, f.seq))
	handle := sum[:]
	f.plain[didcard.HandleKey(handle)] = value
	f.Encrypted = append(f.Encrypted, value)
	return &model.EncryptedInput{Handle: handle, Proof: []byte("input-proof")}, nil
}

func (f *FHE) VerifyDecryption(ctx context.Context, handles [][]byte, contract string, submit didcard.SubmitFunc) (map[string]uint64, error) {
	f.mu.Lock()
	if f.DecryptErr != nil {
		f.mu.Unlock()
		return nil, f.DecryptErr
	}
	values := make(map[string]uint64, len(handles))
	encoded := make([]byte, 0, 32*len(handles))
	for _, h := range handles {
		v, ok := f.plain[didcard.HandleKey(h)]
		if !ok {
			f.mu.Unlock()
			return nil, errors.New("unknown handle")
		}
		values[didcard.HandleKey(h)] = uint64(v)
		word := make([]byte, 32)
		binary.BigEndian.PutUint32(word[28:], v)
		encoded = append(encoded, word...)
	}
	override := f.OverrideClear
	f.mu.Unlock()

	if err := submit(ctx, encoded, []byte("decryption-proof")); err != nil {
		return nil, err
	}
	if override != nil {
		return override, nil
	}
	return values, nil
}

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	events []model.Event
	Err    error
}

func (p *Publisher) Publish(ctx context.Context, event model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns everything published so far
func (p *Publisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event{}, p.events...)
}
