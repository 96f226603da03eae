package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/common"
)

// Approver decides whether the wallet may sign action
type Approver interface {
	Approve(ctx context.Context, address, action string) error
}

// AutoApprover signs everything. Use only for unattended services.
type AutoApprover struct{}

func (AutoApprover) Approve(context.Context, string, string) error { return nil }

// TerminalApprover asks on the terminal and treats anything but yes as a rejection
type TerminalApprover struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalApprover reads answers from in and writes prompts to out
func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{in: bufio.NewReader(in), out: out}
}

func (t *TerminalApprover) Approve(ctx context.Context, address, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// One prompt at a time
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "Sign %q with %s? [y/N]: ", action, common.ShortAddress(address))
	answer, err := t.in.ReadString('\n')
	if err != nil && answer == "" {
		return fmt.Errorf("%w: no answer: %v", didcard.ErrUserRejected, err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("%w: %s declined", didcard.ErrUserRejected, action)
	}
}
