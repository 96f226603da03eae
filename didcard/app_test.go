package didcard_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/didcard/didcardtest"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0x00000000000000000000000000000000000000c0"
	testAccount  = "0x00000000000000000000000000000000000000a1"
)

var fixedNow = time.UnixMilli(1730000000123)

type fixture struct {
	app       *didcard.App
	registry  *didcardtest.Registry
	fhe       *didcardtest.FHE
	publisher *didcardtest.Publisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		registry:  didcardtest.NewRegistry(testContract),
		fhe:       didcardtest.NewFHE(),
		publisher: &didcardtest.Publisher{},
	}
	app, err := didcard.New(didcard.Options{
		Registry:  f.registry,
		FHE:       f.fhe,
		Publisher: f.publisher,
		Logger:    logger,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.app = app
	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.app.Connect(context.Background(), didcardtest.Signer{Addr: testAccount}))
	require.Equal(t, didcard.SessionReady, f.app.Session())
}

func verifiedRecord(id string, age uint32) model.Record {
	return model.Record{ID: id, Name: id, IsVerified: true, DecryptedValue: &age}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := didcard.New(didcard.Options{FHE: didcardtest.NewFHE()})
	assert.EqualError(t, err, "registry is required")

	_, err = didcard.New(didcard.Options{Registry: didcardtest.NewRegistry(testContract)})
	assert.EqualError(t, err, "FHE client is required")
}

func TestRefreshEmpty(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	snap, err := f.app.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Equal(t, model.Stats{}, snap.Stats)
	assert.Equal(t, fixedNow, snap.RefreshedAt)
}

func TestRefreshRequiresReady(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Refresh(context.Background())
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
	assert.Zero(t, f.registry.ListCalls)
}

func TestRefreshSkipsFailedRecord(t *testing.T) {
	f := newFixture(t)
	f.registry.AddRecord(verifiedRecord("did-1", 20), []byte{1})
	f.registry.AddRecord(verifiedRecord("did-2", 41), []byte{2})
	f.registry.AddRecord(model.Record{ID: "did-3"}, []byte{3})
	f.registry.RecordErr["did-2"] = errors.New("rpc timeout")
	f.connect(t)

	snap, err := f.app.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "did-1", snap.Records[0].ID)
	assert.Equal(t, "did-3", snap.Records[1].ID)
	assert.Equal(t, model.Stats{Total: 2, Verified: 1, AverageAge: 20}, snap.Stats)
}

func TestRefreshListFailure(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.registry.AddRecord(model.Record{ID: "did-1"}, []byte{1})
	_, err := f.app.Refresh(context.Background())
	require.NoError(t, err)

	f.registry.ListErr = errors.New("node down")
	snap, err := f.app.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, snap.Records, 1, "previous snapshot is kept")

	banner := f.app.Banner()
	assert.Equal(t, model.BannerError, banner.Level)
	assert.Equal(t, "Failed to load data", banner.Message)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	res, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "17", Description: "student"})
	require.NoError(t, err)
	assert.Equal(t, "did-1730000000123", res.ID)
	assert.Equal(t, "0xtx1", res.TxHash)

	assert.Equal(t, []uint32{17}, f.fhe.Encrypted)
	require.Len(t, f.registry.Created, 1)
	created := f.registry.Created[0]
	assert.Equal(t, "Alice", created.Name)
	assert.Equal(t, "student", created.Description)
	assert.Zero(t, created.PublicValue1)
	assert.Zero(t, created.PublicValue2)
	assert.Len(t, created.Ciphertext, 32)

	state := f.app.State()
	require.Len(t, state.Records, 1)
	assert.Equal(t, "did-1730000000123", state.Records[0].ID)
	assert.False(t, state.Records[0].IsVerified)
	assert.Equal(t, testAccount, state.Records[0].Creator)
	assert.Equal(t, "DID created!", state.Banner.Message)
	assert.Equal(t, model.BannerSuccess, state.Banner.Level)
	assert.False(t, state.Creating)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventRecordCreated, events[0].Type)
	assert.Equal(t, res.ID, events[0].RecordID)
	assert.Equal(t, "0xtx1", events[0].TxHash)
}

func TestCreateNotConnected(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
	assert.Empty(t, f.fhe.Encrypted)
	assert.Empty(t, f.registry.Created)
	assert.Equal(t, "Connect wallet first", f.app.Banner().Message)
}

func TestCreateEncryptionFailureNeverSubmits(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.fhe.EncryptErr = errors.New("relayer unavailable")

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	require.Error(t, err)
	assert.Equal(t, didcard.KindEncryption, didcard.KindOf(err))
	assert.Empty(t, f.registry.Created)
	assert.Equal(t, "Creation failed", f.app.Banner().Message)
	assert.Empty(t, f.publisher.Events())
}

func TestCreateUserRejected(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.registry.CreateErr = fmt.Errorf("%w: signature declined", didcard.ErrUserRejected)

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	assert.ErrorIs(t, err, didcard.ErrUserRejected)

	banner := f.app.Banner()
	assert.Equal(t, model.BannerError, banner.Level)
	assert.Equal(t, "Transaction rejected", banner.Message)
}

func TestCreateConfirmationFailure(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.registry.WaitErr = errors.New("transaction reverted")

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	assert.ErrorIs(t, err, didcard.ErrChain)
	assert.Equal(t, "Creation failed", f.app.Banner().Message)
	assert.Empty(t, f.app.State().Records)
}

func TestCreateInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	for _, in := range []didcard.CreateInput{
		{Name: "", Age: "30"},
		{Name: "Alice", Age: "abc"},
		{Name: "Alice", Age: "0"},
		{Name: "Alice", Age: "121"},
	} {
		_, err := f.app.Create(context.Background(), in)
		assert.ErrorIs(t, err, didcard.ErrInvalidInput, "input %+v", in)
	}
	assert.Empty(t, f.fhe.Encrypted)
}

func TestCreateConcurrentStartRejected(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	block := make(chan struct{})
	f.registry.WaitBlock = block

	done := make(chan error, 1)
	go func() {
		_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.app.State().Creating }, time.Second, 5*time.Millisecond)

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Bob", Age: "40"})
	assert.ErrorIs(t, err, didcard.ErrBusy)

	close(block)
	require.NoError(t, <-done)
	assert.Len(t, f.registry.Created, 1)
	assert.False(t, f.app.State().Creating)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	res, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "42"})
	require.NoError(t, err)

	v, err := f.app.Verify(context.Background(), res.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Value)
	assert.Equal(t, uint32(42), *v.Value)
	assert.False(t, v.AlreadyVerified)
	assert.Len(t, v.Handle, 32)

	record, err := f.app.Record(res.ID)
	require.NoError(t, err)
	assert.True(t, record.IsVerified)
	require.NotNil(t, record.DecryptedValue)
	assert.Equal(t, uint32(42), *record.DecryptedValue)

	state := f.app.State()
	assert.Equal(t, model.Stats{Total: 1, Verified: 1, AverageAge: 42}, state.Stats)
	assert.Equal(t, model.AgeBuckets{From30: 1}, state.AgeBuckets)
	assert.Equal(t, "Age verified!", state.Banner.Message)

	require.Len(t, f.registry.Submitted, 1)
	assert.Equal(t, []byte("decryption-proof"), f.registry.Submitted[0].Proof)

	events := f.publisher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.EventRecordVerified, events[1].Type)
	assert.Equal(t, uint32(42), *events[1].Value)
}

func TestVerifyAlreadyVerified(t *testing.T) {
	f := newFixture(t)
	handle := []byte{0xaa, 0xbb}
	f.registry.AddRecord(verifiedRecord("did-1", 33), handle)
	f.fhe.Seed(handle, 33)
	f.connect(t)
	listBefore := f.registry.ListCalls

	v, err := f.app.Verify(context.Background(), "did-1")
	require.NoError(t, err)
	assert.True(t, v.AlreadyVerified)
	assert.Nil(t, v.Value)

	banner := f.app.Banner()
	assert.Equal(t, model.BannerSuccess, banner.Level)
	assert.Equal(t, "Already verified", banner.Message)
	assert.Greater(t, f.registry.ListCalls, listBefore, "state is refreshed")
	assert.Empty(t, f.publisher.Events())
}

func TestVerifyValueForOtherHandleIsFailure(t *testing.T) {
	f := newFixture(t)
	handle := []byte{0x01}
	f.registry.AddRecord(model.Record{ID: "did-1"}, handle)
	f.fhe.Seed(handle, 25)
	f.fhe.OverrideClear = map[string]uint64{didcard.HandleKey([]byte{0x02}): 25}
	f.connect(t)

	v, err := f.app.Verify(context.Background(), "did-1")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, didcard.ErrVerification)
	assert.Equal(t, "Verification failed", f.app.Banner().Message)

	// The submission went through, so the snapshot reflects it
	require.Len(t, f.registry.Submitted, 1)
	record, err := f.app.Record("did-1")
	require.NoError(t, err)
	assert.True(t, record.IsVerified)
	assert.Equal(t, 1, f.app.State().Stats.Verified)
}

func TestVerifyDecryptionFailure(t *testing.T) {
	f := newFixture(t)
	f.registry.AddRecord(model.Record{ID: "did-1"}, []byte{0x01})
	f.fhe.DecryptErr = errors.New("gateway error")
	f.connect(t)

	v, err := f.app.Verify(context.Background(), "did-1")
	assert.Nil(t, v)
	assert.Equal(t, didcard.KindVerification, didcard.KindOf(err))
	assert.Equal(t, model.BannerError, f.app.Banner().Level)
	assert.Empty(t, f.registry.Submitted)
}

func TestVerifyNotConnected(t *testing.T) {
	f := newFixture(t)

	v, err := f.app.Verify(context.Background(), "did-1")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
	assert.False(t, f.app.Banner().Visible)
}

func TestDisconnectMidSession(t *testing.T) {
	f := newFixture(t)
	f.registry.AddRecord(model.Record{ID: "did-1"}, []byte{1})
	f.connect(t)
	require.Len(t, f.app.State().Records, 1)

	f.app.Disconnect()
	listCalls := f.registry.ListCalls

	state := f.app.State()
	assert.Equal(t, string(didcard.SessionDisconnected), state.Session)
	assert.Empty(t, state.Account)
	assert.Empty(t, state.Records)

	_, err := f.app.Refresh(context.Background())
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
	_, err = f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	assert.ErrorIs(t, err, didcard.ErrNotConnected)
	_, err = f.app.Verify(context.Background(), "did-1")
	assert.ErrorIs(t, err, didcard.ErrNotConnected)

	assert.Equal(t, listCalls, f.registry.ListCalls)
	assert.Empty(t, f.fhe.Encrypted)
}

func TestConnectFHEFailureThenReinitialize(t *testing.T) {
	f := newFixture(t)
	f.fhe.InitErr = errors.New("key download failed")

	err := f.app.Connect(context.Background(), didcardtest.Signer{Addr: testAccount})
	require.Error(t, err)
	assert.Equal(t, didcard.SessionConnectingFHE, f.app.Session())
	assert.Equal(t, "FHEVM initialization failed", f.app.Banner().Message)
	assert.Zero(t, f.registry.ListCalls)

	f.fhe.InitErr = nil
	require.NoError(t, f.app.Reinitialize(context.Background()))
	assert.Equal(t, didcard.SessionReady, f.app.Session())
	assert.Equal(t, 1, f.registry.ListCalls)
}

func TestReinitializeWhenDisconnected(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.app.Reinitialize(context.Background()), didcard.ErrNotConnected)
}

func TestDisconnectDuringInitialization(t *testing.T) {
	f := newFixture(t)
	block := make(chan struct{})
	f.fhe.InitBlock = block

	done := make(chan error, 1)
	go func() {
		done <- f.app.Connect(context.Background(), didcardtest.Signer{Addr: testAccount})
	}()
	require.Eventually(t, func() bool { return f.fhe.Inits() == 1 }, time.Second, 5*time.Millisecond)

	f.app.Disconnect()
	close(block)

	assert.ErrorIs(t, <-done, didcard.ErrNotConnected)
	assert.Equal(t, didcard.SessionDisconnected, f.app.Session())
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)

	ok, err := f.app.CheckAvailability(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "System available!", f.app.Banner().Message)

	f.registry.AvailableErr = errors.New("call reverted")
	_, err = f.app.CheckAvailability(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Check failed", f.app.Banner().Message)
}

func TestQRPayload(t *testing.T) {
	f := newFixture(t)

	payload, err := f.app.QRPayload("did-1730000000123")
	require.NoError(t, err)
	assert.Equal(t, "did:zama:did-1730000000123", payload)

	_, err = f.app.QRPayload(" ")
	assert.ErrorIs(t, err, didcard.ErrInvalidInput)
}

func TestBannerListener(t *testing.T) {
	f := newFixture(t)
	var seen []string
	f.app.OnBanner(func(b model.Banner) { seen = append(seen, b.Message) })

	_, err := f.app.Create(context.Background(), didcard.CreateInput{Name: "Alice", Age: "30"})
	require.Error(t, err)
	assert.Equal(t, []string{"Connect wallet first"}, seen)
}
