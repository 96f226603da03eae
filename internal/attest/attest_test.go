package attest

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"

	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/test"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	proverOnce sync.Once
	prover     *Prover
	proverErr  error
)

func testProver(t *testing.T) *Prover {
	t.Helper()
	proverOnce.Do(func() {
		log := logrus.New()
		log.SetOutput(io.Discard)
		prover, proverErr = NewProver("", log)
	})
	require.NoError(t, proverErr)
	return prover
}

type keySigner struct {
	address string
	sign    func(msg []byte) ([]byte, error)
	reject  error
}

func (s keySigner) Address() string                        { return s.address }
func (s keySigner) Approve(context.Context, string) error  { return s.reject }
func (s keySigner) SignMessage(msg []byte) ([]byte, error) { return s.sign(msg) }

func ethereumSigner(t *testing.T) keySigner {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	return keySigner{
		address: ethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
		sign:    func(msg []byte) ([]byte, error) { return SignEthereum(key, msg) },
	}
}

func solanaSigner() keySigner {
	w := solana.NewWallet()
	return keySigner{
		address: w.PublicKey().String(),
		sign:    func(msg []byte) ([]byte, error) { return SignSolana(w.PrivateKey, msg) },
	}
}

func verified(id, creator string, age uint32) model.Record {
	return model.Record{ID: id, Creator: creator, IsVerified: true, DecryptedValue: &age}
}

func TestCircuitSolving(t *testing.T) {
	assert := test.NewAssert(t)

	recordHash := RecordHash("did-1")
	nonce := big.NewInt(987654321)
	commitment := Commit(recordHash, 30, nonce)

	assert.SolvingSucceeded(&Circuit{}, &Circuit{
		RecordHash: recordHash, Threshold: 18, Commitment: commitment, Age: 30, Nonce: nonce,
	}, test.WithCurves(ecc.BN254))
	assert.SolvingFailed(&Circuit{}, &Circuit{
		RecordHash: recordHash, Threshold: 31, Commitment: commitment, Age: 30, Nonce: nonce,
	}, test.WithCurves(ecc.BN254))
	assert.SolvingFailed(&Circuit{}, &Circuit{
		RecordHash: recordHash, Threshold: 18, Commitment: commitment, Age: 29, Nonce: nonce,
	}, test.WithCurves(ecc.BN254))
}

func TestAttestAndVerify(t *testing.T) {
	p := testProver(t)

	for name, issuer := range map[string]keySigner{
		"ethereum": ethereumSigner(t),
		"solana":   solanaSigner(),
	} {
		t.Run(name, func(t *testing.T) {
			rec := verified("did-1730000000123", issuer.address, 42)
			a, err := p.Attest(context.Background(), rec, 18, issuer)
			require.NoError(t, err)
			assert.Equal(t, "did-1730000000123", a.RecordID)
			assert.Equal(t, uint32(18), a.Threshold)
			assert.Equal(t, issuer.address, a.Issuer)
			assert.NotEmpty(t, a.Proof)
			assert.NotEmpty(t, a.Signature)

			require.NoError(t, p.Verify(*a, rec))
		})
	}
}

func TestAttestAtThreshold(t *testing.T) {
	p := testProver(t)
	issuer := ethereumSigner(t)
	rec := verified("did-2", issuer.address, 18)

	a, err := p.Attest(context.Background(), rec, 18, issuer)
	require.NoError(t, err)
	require.NoError(t, p.Verify(*a, rec))
}

func TestAttestBelowThreshold(t *testing.T) {
	p := testProver(t)
	issuer := ethereumSigner(t)

	_, err := p.Attest(context.Background(), verified("did-3", issuer.address, 17), 18, issuer)
	assert.ErrorIs(t, err, ErrBelowThreshold)
}

func TestAttestRequiresVerifiedRecord(t *testing.T) {
	p := testProver(t)
	issuer := ethereumSigner(t)

	_, err := p.Attest(context.Background(), model.Record{ID: "did-4", Creator: issuer.address}, 18, issuer)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestAttestRequiresCreator(t *testing.T) {
	p := testProver(t)
	owner, other := ethereumSigner(t), ethereumSigner(t)

	_, err := p.Attest(context.Background(), verified("did-5", owner.address, 30), 18, other)
	assert.ErrorIs(t, err, ErrNotCreator)

	_, err = p.Attest(context.Background(), verified("did-5", owner.address, 30), 18, nil)
	assert.ErrorIs(t, err, ErrNotCreator)
}

func TestAttestDeclined(t *testing.T) {
	p := testProver(t)
	issuer := solanaSigner()
	issuer.reject = errors.New("declined")

	_, err := p.Attest(context.Background(), verified("did-6", issuer.address, 30), 18, issuer)
	assert.EqualError(t, err, "declined")
}

func TestVerifyRejectsFabricatedRecord(t *testing.T) {
	p := testProver(t)
	owner, forger := ethereumSigner(t), ethereumSigner(t)
	onChain := verified("did-1", owner.address, 15)

	// A record made up by someone else proves nothing about the stored one
	forged, err := p.Attest(context.Background(), verified("did-1", forger.address, 99), 21, forger)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Verify(*forged, onChain), ErrWrongIssuer)

	// Claiming the owner as issuer does not survive the signature check
	impersonated := *forged
	impersonated.Issuer = owner.address
	assert.ErrorIs(t, p.Verify(impersonated, verified("did-1", owner.address, 99)), ErrBadSignature)

	// The creator cannot overstate the age the chain holds
	inflated, err := p.Attest(context.Background(), verified("did-1", owner.address, 99), 21, owner)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Verify(*inflated, onChain), ErrBelowThreshold)

	unverified := onChain
	unverified.IsVerified, unverified.DecryptedValue = false, nil
	assert.ErrorIs(t, p.Verify(*inflated, unverified), ErrNotVerified)
}

func TestVerifyRejectsTamperedAttestation(t *testing.T) {
	p := testProver(t)
	issuer := ethereumSigner(t)
	rec := verified("did-7", issuer.address, 40)
	a, err := p.Attest(context.Background(), rec, 21, issuer)
	require.NoError(t, err)

	raised := *a
	raised.Threshold = 30
	assert.ErrorIs(t, p.Verify(raised, rec), ErrBadSignature)

	recommitted := *a
	recommitted.Commitment = "12345"
	assert.ErrorIs(t, p.Verify(recommitted, rec), ErrBadSignature)

	moved := *a
	moved.RecordID = "did-8"
	assert.ErrorIs(t, p.Verify(moved, verified("did-8", issuer.address, 40)), ErrBadSignature)
	assert.ErrorIs(t, p.Verify(moved, rec), ErrInvalidProof, "record id must match")

	garbage := *a
	garbage.Proof = "not base64!"
	assert.ErrorIs(t, p.Verify(garbage, rec), ErrInvalidProof)

	unsigned := *a
	unsigned.Signature = ""
	assert.ErrorIs(t, p.Verify(unsigned, rec), ErrBadSignature)
}

func TestKeysPersist(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)
	issuer := solanaSigner()
	rec := verified("did-9", issuer.address, 40)

	first, err := NewProver(dir, log)
	require.NoError(t, err)
	a, err := first.Attest(context.Background(), rec, 18, issuer)
	require.NoError(t, err)

	second, err := NewProver(dir, log)
	require.NoError(t, err)
	require.NoError(t, second.Verify(*a, rec))
}

func TestRecordHashInField(t *testing.T) {
	h := RecordHash("did-1")
	assert.Equal(t, h, RecordHash("did-1"))
	assert.NotEqual(t, h, RecordHash("did-2"))
}
