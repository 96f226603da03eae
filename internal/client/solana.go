package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/common"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/near/borsh-go"
	"github.com/sirupsen/logrus"
)

const (
	solFeeLamports = 5000 // Fee in lamports (0.000005 SOL)
)

// SolanaSigner is an account able to sign Solana transactions
type SolanaSigner interface {
	didcard.Signer
	SolanaKey() (solana.PrivateKey, error)
	Approve(ctx context.Context, action string) error
}

// SolanaRegistry is the identity card program on Solana
type SolanaRegistry struct {
	rpcClient    *rpc.Client
	rpcURL       string
	programID    solana.PublicKey
	registryPDA  solana.PublicKey
	pollInterval time.Duration
	log          *logrus.Logger
}

// NewSolanaRegistry creates a client for the program at programID
func NewSolanaRegistry(rpcURL, programID string, pollInterval time.Duration, log *logrus.Logger) (*SolanaRegistry, error) {
	programPubkey, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %w", err)
	}

	registryPDA, _, err := solana.FindProgramAddress([][]byte{[]byte(registrySeed)}, programPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive registry address: %w", err)
	}

	return &SolanaRegistry{
		rpcClient:    rpc.New(rpcURL),
		rpcURL:       rpcURL,
		programID:    programPubkey,
		registryPDA:  registryPDA,
		pollInterval: pollInterval,
		log:          log,
	}, nil
}

// Address returns the program id
func (c *SolanaRegistry) Address() string {
	return c.programID.String()
}

// recordAddress derives the record PDA for id
func (c *SolanaRegistry) recordAddress(id string) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte(recordSeed), []byte(id)}, c.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive record address: %w", err)
	}
	return pda, nil
}

// ListIDs reads the registry account. No account yet means no records.
func (c *SolanaRegistry) ListIDs(ctx context.Context) ([]string, error) {
	data, err := c.accountData(ctx, c.registryPDA)
	if err != nil {
		if errors.Is(err, didcard.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	var registry registryAccount
	if err := borsh.Deserialize(&registry, data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode registry account: %v", didcard.ErrChain, err)
	}
	if registry.IDs == nil {
		return []string{}, nil
	}
	return registry.IDs, nil
}

// GetRecord reads the record account for id
func (c *SolanaRegistry) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	account, err := c.recordAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &model.Record{
		ID:           id,
		Name:         account.Name,
		Description:  account.Description,
		Creator:      solana.PublicKeyFromBytes(account.Creator[:]).String(),
		Timestamp:    account.Timestamp,
		PublicValue1: account.PublicValue1,
		PublicValue2: account.PublicValue2,
		IsVerified:   account.IsVerified,
	}
	if account.IsVerified {
		value := account.DecryptedValue
		record.DecryptedValue = &value
	}
	return record, nil
}

// EncryptedHandle returns the handle stored in the record account
func (c *SolanaRegistry) EncryptedHandle(ctx context.Context, id string) ([]byte, error) {
	account, err := c.recordAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.Handle[:], nil
}

// IsAvailable reports whether the program account is deployed and executable
func (c *SolanaRegistry) IsAvailable(ctx context.Context) (bool, error) {
	info, err := c.rpcClient.GetAccountInfo(ctx, c.programID)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to get program account: %v", didcard.ErrChain, err)
	}
	return info.Value != nil && info.Value.Executable, nil
}

// CreateRecord sends the CreateRecord instruction
func (c *SolanaRegistry) CreateRecord(ctx context.Context, signer didcard.Signer, tx model.CreateRecordTx) (didcard.PendingTx, error) {
	if len(tx.Ciphertext) != 32 {
		return nil, fmt.Errorf("%w: ciphertext handle must be 32 bytes", didcard.ErrInvalidInput)
	}
	recordPDA, err := c.recordAddress(tx.ID)
	if err != nil {
		return nil, err
	}

	args := createRecordArgs{
		Instruction:  ixCreateRecord,
		ID:           tx.ID,
		Name:         tx.Name,
		Handle:       [32]byte(tx.Ciphertext),
		Proof:        tx.Proof,
		PublicValue1: tx.PublicValue1,
		PublicValue2: tx.PublicValue2,
		Description:  tx.Description,
	}

	// The creator also pays rent for the new record account
	rentExempt, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, recordAccountSize, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rent exemption: %v", didcard.ErrChain, err)
	}

	return c.send(ctx, signer, "create "+tx.ID, args, rentExempt, func(payer solana.PublicKey) solana.AccountMetaSlice {
		return solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(c.registryPDA).WRITE(),
			solana.Meta(recordPDA).WRITE(),
			solana.Meta(solana.SystemProgramID),
		}
	})
}

// SubmitVerification sends the SubmitVerification instruction
func (c *SolanaRegistry) SubmitVerification(ctx context.Context, signer didcard.Signer, id string, clearValues, proof []byte) (didcard.PendingTx, error) {
	recordPDA, err := c.recordAddress(id)
	if err != nil {
		return nil, err
	}

	args := submitVerificationArgs{
		Instruction: ixSubmitVerification,
		ID:          id,
		ClearValues: clearValues,
		Proof:       proof,
	}

	return c.send(ctx, signer, "verify "+id, args, 0, func(payer solana.PublicKey) solana.AccountMetaSlice {
		return solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(recordPDA).WRITE(),
		}
	})
}

// send checks the fee balance, asks for approval, then signs and submits one program instruction
func (c *SolanaRegistry) send(ctx context.Context, signer didcard.Signer, action string, args any, extraLamports uint64, accounts func(payer solana.PublicKey) solana.AccountMetaSlice) (didcard.PendingTx, error) {
	s, ok := signer.(SolanaSigner)
	if !ok {
		return nil, fmt.Errorf("%w: account cannot sign Solana transactions", didcard.ErrNotConnected)
	}

	payer, err := solana.PublicKeyFromBase58(s.Address())
	if err != nil {
		return nil, fmt.Errorf("invalid signer address: %w", err)
	}

	// Check SOL sufficiency for fee (and rent, when creating)
	balance, err := c.rpcClient.GetBalance(ctx, payer, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get SOL balance: %v", didcard.ErrChain, err)
	}
	required := solFeeLamports + extraLamports
	if balance.Value < required {
		return nil, fmt.Errorf("%w: insufficient SOL for transaction fee (need: %s SOL). Have: %s SOL",
			didcard.ErrChain, common.LamportsToSOL(required), common.LamportsToSOL(balance.Value))
	}

	if err := s.Approve(ctx, action); err != nil {
		return nil, err
	}

	wallet, err := s.SolanaKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing key: %w", err)
	}
	// Verify wallet matches from address
	if !wallet.PublicKey().Equals(payer) {
		return nil, errors.New("private key does not match address")
	}

	data, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode instruction: %w", err)
	}
	instruction := solana.NewInstruction(c.programID, accounts(payer), data)

	// Get latest blockhash
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get recent blockhash: %v", didcard.ErrChain, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign transaction
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if wallet.PublicKey().Equals(key) {
			return &wallet
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	// Send transaction, simulating it on the node first
	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, classifySolanaError(err)
	}

	c.log.WithFields(logrus.Fields{"action": action, "tx": sig.String()}).Info("transaction sent")
	return &solanaTx{sig: sig, registry: c}, nil
}

func (c *SolanaRegistry) recordAccount(ctx context.Context, id string) (*recordAccount, error) {
	pda, err := c.recordAddress(id)
	if err != nil {
		return nil, err
	}
	data, err := c.accountData(ctx, pda)
	if err != nil {
		return nil, err
	}

	var account recordAccount
	if err := borsh.Deserialize(&account, data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode record %s: %v", didcard.ErrChain, id, err)
	}
	return &account, nil
}

// accountData returns the raw data of an account owned by the program
func (c *SolanaRegistry) accountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	info, err := c.rpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", didcard.ErrNotFound, address)
		}
		return nil, fmt.Errorf("%w: failed to get account %s: %v", didcard.ErrChain, address, err)
	}
	if info.Value == nil {
		return nil, fmt.Errorf("%w: account %s", didcard.ErrNotFound, address)
	}
	if !info.Value.Owner.Equals(c.programID) {
		return nil, fmt.Errorf("%w: account %s is not owned by the program", didcard.ErrChain, address)
	}
	return info.Value.Data.GetBinary(), nil
}

// solanaTx polls the signature status until it is confirmed
type solanaTx struct {
	sig      solana.Signature
	registry *SolanaRegistry
}

func (t *solanaTx) Hash() string {
	return t.sig.String()
}

func (t *solanaTx) Wait(ctx context.Context) error {
	ticker := time.NewTicker(t.registry.pollInterval)
	defer ticker.Stop()

	for {
		done, err := t.poll(ctx)
		if done || err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to wait for %s: %w", t.Hash(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (t *solanaTx) poll(ctx context.Context) (bool, error) {
	out, err := t.registry.rpcClient.GetSignatureStatuses(ctx, true, t.sig)
	if err != nil {
		// transient RPC failures are retried on the next tick
		t.registry.log.WithError(err).WithField("tx", t.Hash()).Debug("signature status poll failed")
		return false, nil
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		raw, _ := json.Marshal(status.Err)
		return true, classifySolanaError(fmt.Errorf("transaction %s failed: %s", t.Hash(), raw))
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	}
	return false, nil
}

var (
	customErrHex  = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	customErrJSON = regexp.MustCompile(`"Custom":\s*(\d+)`)
)

// programErrorCode extracts the custom program error from a preflight or status error
func programErrorCode(msg string) (uint64, bool) {
	if m := customErrHex.FindStringSubmatch(msg); m != nil {
		code, err := strconv.ParseUint(m[1], 16, 64)
		return code, err == nil
	}
	if m := customErrJSON.FindStringSubmatch(msg); m != nil {
		code, err := strconv.ParseUint(m[1], 10, 64)
		return code, err == nil
	}
	return 0, false
}

// classifySolanaError turns program error codes into didcard kinds
func classifySolanaError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code, ok := programErrorCode(err.Error())
	if !ok {
		return fmt.Errorf("%w: %w", didcard.ErrChain, err)
	}
	switch code {
	case programErrAlreadyVerified:
		return fmt.Errorf("%w: %w", didcard.ErrAlreadyVerified, err)
	case programErrRecordNotFound:
		return fmt.Errorf("%w: %w", didcard.ErrNotFound, err)
	case programErrInvalidProof:
		return fmt.Errorf("%w: %w", didcard.ErrVerification, err)
	default:
		return fmt.Errorf("%w: %w", didcard.ErrChain, err)
	}
}
