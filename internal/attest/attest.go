// Package attest issues zero-knowledge proofs that a verified record's age is
// at least a threshold. The record creator signs each attestation and checks
// run against the record as stored on chain.
package attest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	frmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

const (
	provingKeyFile   = "age_pk.bin"
	verifyingKeyFile = "age_vk.bin"
)

var (
	ErrNotVerified    = errors.New("record age is not verified yet")
	ErrBelowThreshold = errors.New("age is below threshold")
	ErrInvalidProof   = errors.New("invalid attestation proof")
)

// Prover holds the compiled circuit and its Groth16 keys
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
	log *logrus.Logger
}

// NewProver compiles the circuit and loads keys from keysDir, creating them on first use.
// An empty keysDir keeps freshly generated keys in memory only.
func NewProver(keysDir string, log *logrus.Logger) (*Prover, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &Circuit{})
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}
	p := &Prover{ccs: ccs, log: log}

	if keysDir != "" {
		loaded, err := p.loadKeys(keysDir)
		if err != nil {
			return nil, err
		}
		if loaded {
			log.WithField("dir", keysDir).Info("attestation keys loaded")
			return p, nil
		}
	}

	p.pk, p.vk, err = groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("failed to run groth16 setup: %w", err)
	}
	log.WithField("constraints", ccs.GetNbConstraints()).Info("attestation keys generated")

	if keysDir != "" {
		if err := p.saveKeys(keysDir); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RecordHash maps a record id into the scalar field
func RecordHash(id string) *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(id))
	sum := new(big.Int).SetBytes(h.Sum(nil))
	return sum.Mod(sum, fr.Modulus())
}

// Commit computes MiMC(recordHash, age, nonce) exactly as the circuit does
func Commit(recordHash *big.Int, age uint32, nonce *big.Int) *big.Int {
	h := frmimc.NewMiMC()
	for _, x := range []*big.Int{recordHash, big.NewInt(int64(age)), nonce} {
		var fe fr.Element
		fe.SetBigInt(x)
		b := fe.Bytes()
		h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Attest proves record's verified age is at least threshold. The issuer must be
// the record creator and approves the signature like any other.
func (p *Prover) Attest(ctx context.Context, record model.Record, threshold uint32, issuer Signer) (*model.Attestation, error) {
	if !record.IsVerified || record.DecryptedValue == nil {
		return nil, ErrNotVerified
	}
	age := *record.DecryptedValue
	if age < threshold {
		return nil, ErrBelowThreshold
	}
	if issuer == nil || !sameAddress(issuer.Address(), record.Creator) {
		return nil, ErrNotCreator
	}

	var nonceFe fr.Element
	if _, err := nonceFe.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := nonceFe.BigInt(new(big.Int))

	recordHash := RecordHash(record.ID)
	commitment := Commit(recordHash, age, nonce)

	assignment := &Circuit{
		RecordHash: recordHash,
		Threshold:  big.NewInt(int64(threshold)),
		Commitment: commitment,
		Age:        big.NewInt(int64(age)),
		Nonce:      nonce,
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to construct witness: %w", err)
	}

	proof, err := groth16.Prove(p.ccs, p.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode proof: %w", err)
	}

	a := &model.Attestation{
		RecordID:   record.ID,
		Threshold:  threshold,
		Commitment: commitment.String(),
		Proof:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:     issuer.Address(),
	}

	if err := issuer.Approve(ctx, fmt.Sprintf("attest %s age >= %d", record.ID, threshold)); err != nil {
		return nil, err
	}
	sig, err := issuer.SignMessage(Statement(*a))
	if err != nil {
		return nil, err
	}
	a.Signature = base64.StdEncoding.EncodeToString(sig)
	return a, nil
}

// Verify checks a against record as currently stored on chain: the issuer must be
// its creator, the chain must hold a verified age that meets the threshold, and
// the signature and proof must check out.
func (p *Prover) Verify(a model.Attestation, record model.Record) error {
	if a.RecordID != record.ID {
		return fmt.Errorf("%w: attestation is for %s, not %s", ErrInvalidProof, a.RecordID, record.ID)
	}
	if !sameAddress(a.Issuer, record.Creator) {
		return ErrWrongIssuer
	}
	if !record.IsVerified || record.DecryptedValue == nil {
		return ErrNotVerified
	}
	if *record.DecryptedValue < a.Threshold {
		return ErrBelowThreshold
	}

	sig, err := base64.StdEncoding.DecodeString(a.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if err := checkSignature(a.Issuer, Statement(a), sig); err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(a.Proof)
	if err != nil {
		return fmt.Errorf("%w: failed to decode proof: %v", ErrInvalidProof, err)
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: failed to read proof: %v", ErrInvalidProof, err)
	}

	commitment, ok := new(big.Int).SetString(a.Commitment, 10)
	if !ok {
		return fmt.Errorf("%w: commitment is not a decimal number", ErrInvalidProof)
	}

	public := &Circuit{
		RecordHash: RecordHash(a.RecordID),
		Threshold:  big.NewInt(int64(a.Threshold)),
		Commitment: commitment,
	}
	publicWitness, err := frontend.NewWitness(public, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("failed to construct public witness: %w", err)
	}

	if err := groth16.Verify(proof, p.vk, publicWitness); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// WriteVerifyingKey exports the verifying key for third-party verifiers
func (p *Prover) WriteVerifyingKey(w io.Writer) error {
	if _, err := p.vk.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write verifying key: %w", err)
	}
	return nil
}

// loadKeys reports false when the directory holds no keys yet
func (p *Prover) loadKeys(dir string) (bool, error) {
	pkPath := filepath.Join(dir, provingKeyFile)
	if _, err := os.Stat(pkPath); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readKey(pkPath, pk); err != nil {
		return false, err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readKey(filepath.Join(dir, verifyingKeyFile), vk); err != nil {
		return false, err
	}
	p.pk, p.vk = pk, vk
	return true, nil
}

func (p *Prover) saveKeys(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create keys dir: %w", err)
	}
	if err := writeKey(filepath.Join(dir, provingKeyFile), p.pk); err != nil {
		return err
	}
	return writeKey(filepath.Join(dir, verifyingKeyFile), p.vk)
}

func readKey(path string, key io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()

	if _, err := key.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to read key %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeKey(path string, key io.WriterTo) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	if _, err := key.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write key %s: %w", filepath.Base(path), err)
	}
	return nil
}
