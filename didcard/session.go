package didcard

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// SessionState is the Gate's position in disconnected -> connecting-fhe -> ready
type SessionState string

const (
	SessionDisconnected  SessionState = "disconnected"
	SessionConnectingFHE SessionState = "connecting-fhe"
	SessionReady         SessionState = "ready"
)

// Gate tracks wallet connection and FHE readiness.
// Nothing reads or writes the chain unless the Gate is ready.
type Gate struct {
	mu      sync.Mutex
	state   SessionState
	account Signer
	gen     uint64 // bumped on every connect and disconnect

	fhe   FHE
	board *Board
	log   *logrus.Logger
}

// NewGate creates a disconnected gate
func NewGate(fhe FHE, board *Board, log *logrus.Logger) *Gate {
	return &Gate{
		state: SessionDisconnected,
		fhe:   fhe,
		board: board,
		log:   log,
	}
}

// Connect makes account the active wallet and initializes FHE.
// On failure the gate stays in connecting-fhe; there is no automatic retry.
func (g *Gate) Connect(ctx context.Context, account Signer) error {
	if account == nil || account.Address() == "" {
		return fmt.Errorf("%w: no account", ErrInvalidInput)
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.state = SessionConnectingFHE
	g.account = account
	g.mu.Unlock()

	g.log.WithField("account", account.Address()).Info("wallet connected, initializing FHE")
	return g.initialize(ctx, gen)
}

// Reinitialize retries FHE initialization for the current connection.
// It is a no-op once ready.
func (g *Gate) Reinitialize(ctx context.Context) error {
	g.mu.Lock()
	state, gen := g.state, g.gen
	g.mu.Unlock()

	switch state {
	case SessionReady:
		return nil
	case SessionDisconnected:
		return ErrNotConnected
	}
	return g.initialize(ctx, gen)
}

// Disconnect drops the account. Initialization still running for the old
// connection cannot make the gate ready afterwards.
func (g *Gate) Disconnect() {
	g.mu.Lock()
	g.gen++
	g.state = SessionDisconnected
	g.account = nil
	g.mu.Unlock()

	g.log.Info("wallet disconnected")
}

// RequireReady returns the connected account or ErrNotConnected
func (g *Gate) RequireReady() (Signer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != SessionReady || g.account == nil {
		return nil, ErrNotConnected
	}
	return g.account, nil
}

// State returns the current session state
func (g *Gate) State() SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Account returns the connected account, ready or not
func (g *Gate) Account() Signer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.account
}

// generation identifies the current connection
func (g *Gate) generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

func (g *Gate) initialize(ctx context.Context, gen uint64) error {
	err := g.fhe.Initialize(ctx)

	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return fmt.Errorf("%w: session changed during FHE initialization", ErrNotConnected)
	}
	if err == nil {
		g.state = SessionReady
	}
	g.mu.Unlock()

	if err != nil {
		g.log.WithError(err).Error("FHE initialization failed")
		g.board.Error("FHEVM initialization failed")
		return fmt.Errorf("failed to initialize FHE: %w: %w", ErrEncryption, err)
	}

	g.log.Info("FHE ready")
	return nil
}
