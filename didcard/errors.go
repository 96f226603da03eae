package didcard

import "errors"

// Kind classifies a failure so callers never have to inspect error text
type Kind int

const (
	KindUnknown Kind = iota
	KindNotConnected
	KindInvalidInput
	KindBusy
	KindUserRejected
	KindAlreadyVerified
	KindEncryption
	KindChain
	KindVerification
	KindNotFound
)

var (
	ErrNotConnected    = errors.New("not connected")
	ErrInvalidInput    = errors.New("invalid input")
	ErrBusy            = errors.New("operation already in progress")
	ErrUserRejected    = errors.New("user rejected")
	ErrAlreadyVerified = errors.New("already verified")
	ErrEncryption      = errors.New("encryption failed")
	ErrChain           = errors.New("chain call failed")
	ErrVerification    = errors.New("verification failed")
	ErrNotFound        = errors.New("record not found")
)

// kindOrder is checked top to bottom, so more specific kinds come first
var kindOrder = []struct {
	kind Kind
	err  error
}{
	{KindAlreadyVerified, ErrAlreadyVerified},
	{KindUserRejected, ErrUserRejected},
	{KindNotConnected, ErrNotConnected},
	{KindBusy, ErrBusy},
	{KindInvalidInput, ErrInvalidInput},
	{KindNotFound, ErrNotFound},
	{KindEncryption, ErrEncryption},
	{KindVerification, ErrVerification},
	{KindChain, ErrChain},
}

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kindOrder {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not_connected"
	case KindInvalidInput:
		return "invalid_input"
	case KindBusy:
		return "busy"
	case KindUserRejected:
		return "user_rejected"
	case KindAlreadyVerified:
		return "already_verified"
	case KindEncryption:
		return "encryption"
	case KindChain:
		return "chain"
	case KindVerification:
		return "verification"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
