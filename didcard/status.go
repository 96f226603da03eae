package didcard

import (
	"sync"
	"time"

	"github.com/AlexZinkM/did-card/internal/model"
)

const (
	SuccessTTL = 2 * time.Second
	ErrorTTL   = 3 * time.Second
)

// Board holds the single transient status banner.
// Every Show replaces the banner and cancels the previous dismiss timer.
type Board struct {
	mu       sync.Mutex
	banner   model.Banner
	seq      uint64
	timer    *time.Timer
	listener func(model.Banner)
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{banner: model.Banner{Level: model.BannerPending}}
}

// SetListener registers fn to be called with every banner change
func (b *Board) SetListener(fn func(model.Banner)) {
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
}

// Show replaces the current banner. ttl <= 0 keeps it until replaced.
func (b *Board) Show(level model.BannerLevel, message string, ttl time.Duration) model.Banner {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
	id := b.seq
	b.banner = model.Banner{ID: id, Visible: true, Level: level, Message: message}
	if ttl > 0 {
		b.timer = time.AfterFunc(ttl, func() { b.dismiss(id) })
	}
	banner, listener := b.banner, b.listener
	b.mu.Unlock()

	if listener != nil {
		listener(banner)
	}
	return banner
}

// Pending shows a banner that stays until replaced
func (b *Board) Pending(message string) model.Banner {
	return b.Show(model.BannerPending, message, 0)
}

// Success shows a banner dismissed after SuccessTTL
func (b *Board) Success(message string) model.Banner {
	return b.Show(model.BannerSuccess, message, SuccessTTL)
}

// Error shows a banner dismissed after ErrorTTL
func (b *Board) Error(message string) model.Banner {
	return b.Show(model.BannerError, message, ErrorTTL)
}

// Current returns the banner as it is now
func (b *Board) Current() model.Banner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banner
}

// dismiss hides banner id unless a newer one replaced it
func (b *Board) dismiss(id uint64) {
	b.mu.Lock()
	if b.banner.ID != id {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.banner = model.Banner{ID: id, Level: model.BannerPending}
	banner, listener := b.banner, b.listener
	b.mu.Unlock()

	if listener != nil {
		listener(banner)
	}
}
