package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

const (
	BackendEVM    = "evm"
	BackendSolana = "solana"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetWalletPasswordBytes()
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	WalletFilePath string `envconfig:"WALLET_FILE_PATH" required:"true"`
	AutoApprove    bool   `envconfig:"AUTO_APPROVE" default:"false"`

	ChainBackend    string `envconfig:"CHAIN_BACKEND" default:"evm"`
	EVMRPCURL       string `envconfig:"EVM_RPC_URL" default:"https://ethereum-sepolia-rpc.publicnode.com"`
	EVMChainID      int64  `envconfig:"EVM_CHAIN_ID" default:"11155111"`
	ContractAddress string `envconfig:"CONTRACT_ADDRESS"`
	SolanaRPCURL    string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	SolanaProgramID string `envconfig:"SOLANA_PROGRAM_ID"`
	// Solana has no block receipts to wait on, so confirmations are polled
	ConfirmPollInterval time.Duration `envconfig:"CONFIRM_POLL_INTERVAL" default:"2s"`

	RelayerURL string `envconfig:"RELAYER_URL" default:"https://relayer.testnet.zama.cloud"`
	// Chain id sent to the relayer. Falls back to EVM_CHAIN_ID; the solana backend
	// needs a relayer that accepts base58 program ids and must set it explicitly.
	RelayerChainID int64  `envconfig:"RELAYER_CHAIN_ID"`
	DIDNamespace   string `envconfig:"DID_NAMESPACE" default:"zama"`

	// Empty keeps attestation keys in memory; proofs then only verify in this process
	AttestKeysDir string `envconfig:"ATTEST_KEYS_DIR"`

	// Empty disables the scheduled refresh
	RefreshSchedule string `envconfig:"REFRESH_SCHEDULE"`

	// Empty publishes events to the log only
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"didcard.events"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables and validates the chain backend.
func Init() error {
	if err := Load(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		cfg = nil
		return err
	}
	return nil
}

// Load reads environment variables without validating the chain backend.
// Wallet file commands only need this.
func Load() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Validate checks that the selected chain backend is fully configured
func (c *Config) Validate() error {
	switch c.ChainBackend {
	case BackendEVM:
		if c.ContractAddress == "" {
			return errors.New("CONTRACT_ADDRESS is required for the evm backend")
		}
		if c.EVMChainID <= 0 {
			return errors.New("EVM_CHAIN_ID must be positive")
		}
	case BackendSolana:
		if c.SolanaProgramID == "" {
			return errors.New("SOLANA_PROGRAM_ID is required for the solana backend")
		}
		if c.ConfirmPollInterval <= 0 {
			return errors.New("CONFIRM_POLL_INTERVAL must be positive")
		}
		if c.RelayerChainID <= 0 {
			return errors.New("RELAYER_CHAIN_ID is required for the solana backend")
		}
	default:
		return fmt.Errorf("unknown CHAIN_BACKEND %q (want %s or %s)", c.ChainBackend, BackendEVM, BackendSolana)
	}
	return nil
}

// FHEChainID is the chain id the FHE relayer is addressed with
func (c *Config) FHEChainID() int64 {
	if c.RelayerChainID > 0 {
		return c.RelayerChainID
	}
	return c.EVMChainID
}

// WalletNetwork is the key type the selected backend signs with
func (c *Config) WalletNetwork() string {
	if c.ChainBackend == BackendSolana {
		return "solana"
	}
	return "ethereum"
}

var passwordBytes []byte

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter wallet password: ")
	if err != nil {
		return err
	}
	return SetPassword(raw)
}

// ReadPassword prints prompt and reads one line from the terminal without echo.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return raw, nil
}

// SetPassword stores a copy of raw and zeroes raw
func SetPassword(raw []byte) error {
	defer clear(raw)
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}
	clear(passwordBytes)
	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	return nil
}

// GetWalletPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetWalletPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
