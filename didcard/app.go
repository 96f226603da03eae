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

// DefaultNamespace is used in QR payloads when none is configured
const DefaultNamespace = "zama"

// Options configures an App
type Options struct {
	Registry  Registry
	FHE       FHE
	Publisher Publisher // optional
	Logger    *logrus.Logger
	Namespace string
	Now       func() time.Time
}

// App owns all client state. Callers get read-only snapshots through State.
type App struct {
	board    *Board
	gate     *Gate
	store    *Store
	creator  *Creator
	verifier *Verifier

	registry  Registry
	namespace string
	log       *logrus.Logger
}

// New wires the gate, store and orchestrators around the given collaborators
func New(opts Options) (*App, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.FHE == nil {
		return nil, errors.New("FHE client is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	board := NewBoard()
	gate := NewGate(opts.FHE, board, opts.Logger)
	store := NewStore(opts.Registry, gate, board, opts.Logger, opts.Now)

	return &App{
		board: board,
		gate:  gate,
		store: store,
		creator: &Creator{
			guard:     NewGuard(),
			gate:      gate,
			store:     store,
			registry:  opts.Registry,
			fhe:       opts.FHE,
			board:     board,
			publisher: opts.Publisher,
			log:       opts.Logger,
			now:       opts.Now,
		},
		verifier: &Verifier{
			guard:     NewGuard(),
			gate:      gate,
			store:     store,
			registry:  opts.Registry,
			fhe:       opts.FHE,
			board:     board,
			publisher: opts.Publisher,
			log:       opts.Logger,
			now:       opts.Now,
		},
		registry:  opts.Registry,
		namespace: opts.Namespace,
		log:       opts.Logger,
	}, nil
}

// Connect activates account and, once FHE is ready, loads the records
func (a *App) Connect(ctx context.Context, account Signer) error {
	if err := a.gate.Connect(ctx, account); err != nil {
		return err
	}
	if _, err := a.store.Refresh(ctx); err != nil {
		a.log.WithError(err).Warn("initial refresh failed")
	}
	return nil
}

// Reinitialize retries FHE initialization after a failed Connect
func (a *App) Reinitialize(ctx context.Context) error {
	if err := a.gate.Reinitialize(ctx); err != nil {
		return err
	}
	if _, err := a.store.Refresh(ctx); err != nil {
		a.log.WithError(err).Warn("refresh after reinitialize failed")
	}
	return nil
}

// Disconnect drops the account and the loaded records
func (a *App) Disconnect() {
	a.gate.Disconnect()
	a.store.Reset()
}

// Refresh reloads every record from the chain
func (a *App) Refresh(ctx context.Context) (model.Snapshot, error) {
	return a.store.Refresh(ctx)
}

// Create encrypts and registers a new identity card
func (a *App) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	return a.creator.Create(ctx, in)
}

// Verify decrypts and verifies the age of record id
func (a *App) Verify(ctx context.Context, id string) (*Verification, error) {
	return a.verifier.Verify(ctx, id)
}

// Snapshot returns the last loaded records and stats
func (a *App) Snapshot() model.Snapshot {
	return a.store.Snapshot()
}

// Record returns one record from the current snapshot
func (a *App) Record(id string) (model.Record, error) {
	return a.store.Get(id)
}

// LookupRecord reads record id straight from the chain. No session is needed.
func (a *App) LookupRecord(ctx context.Context, id string) (model.Record, error) {
	if strings.TrimSpace(id) == "" {
		return model.Record{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	rec, err := a.registry.GetRecord(ctx, id)
	if err != nil {
		return model.Record{}, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return *rec, nil
}

// CheckAvailability asks the contract whether it is accepting calls
func (a *App) CheckAvailability(ctx context.Context) (bool, error) {
	available, err := a.registry.IsAvailable(ctx)
	if err != nil {
		a.log.WithError(err).Error("availability check failed")
		a.board.Error("Check failed")
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	if available {
		a.board.Success("System available!")
	}
	return available, nil
}

// QRPayload returns the did URI rendered into a record's QR code
func (a *App) QRPayload(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return common.DIDURI(a.namespace, id), nil
}

// Session returns the session state
func (a *App) Session() SessionState {
	return a.gate.State()
}

// Account returns the connected account, if any
func (a *App) Account() Signer {
	return a.gate.Account()
}

// Banner returns the current status banner
func (a *App) Banner() model.Banner {
	return a.board.Current()
}

// OnBanner registers fn to receive every banner change
func (a *App) OnBanner(fn func(model.Banner)) {
	a.board.SetListener(fn)
}

// ContractAddress is the registry the app talks to
func (a *App) ContractAddress() string {
	return a.registry.Address()
}

// State returns a read-only view of everything the UI renders
func (a *App) State() model.AppState {
	snap := a.store.Snapshot()
	state := model.AppState{
		Session:     string(a.gate.State()),
		Contract:    a.registry.Address(),
		Records:     snap.Records,
		Stats:       snap.Stats,
		AgeBuckets:  snap.AgeBuckets,
		RefreshedAt: snap.RefreshedAt,
		Banner:      a.board.Current(),
		Creating:    a.creator.InFlight(),
		Verifying:   a.verifier.InFlight(),
		Refreshing:  a.store.Refreshing(),
	}
	if account := a.gate.Account(); account != nil {
		state.Account = account.Address()
	}
	return state
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Event) error { return nil }
