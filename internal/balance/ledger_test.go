package balance

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspark/internal/domain"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type fakeSource struct {
	mu      sync.Mutex
	name    domain.PaymentSource
	value   float64
	present bool

	getErr    error
	putErr    error
	createErr error

	puts    []float64
	created []float64
}

func (f *fakeSource) Name() domain.PaymentSource { return f.name }

func (f *fakeSource) Get(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	if !f.present {
		return 0, ErrNotFound
	}
	return f.value, nil
}

func (f *fakeSource) Put(ctx context.Context, v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.value = v
	f.present = true
	f.puts = append(f.puts, v)
	return nil
}

func (f *fakeSource) Create(ctx context.Context, v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.value = v
	f.present = true
	f.created = append(f.created, v)
	return nil
}

func remote(v float64) *fakeSource {
	return &fakeSource{name: domain.PaymentSourceRemote, value: v, present: true}
}

func local(v float64) *fakeSource {
	return &fakeSource{name: domain.PaymentSourceLocal, value: v, present: true}
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func loadedLedger(t *testing.T, r, l *fakeSource) *Ledger {
	t.Helper()
	ledger := NewLedger(r, l, quietLog())
	_, err := ledger.Load(context.Background())
	require.NoError(t, err)
	return ledger
}

func TestLoad_RemoteOverwritesLocal(t *testing.T) {
	r, l := remote(25), local(10)

	ledger := NewLedger(r, l, quietLog())
	res, err := ledger.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 25.0, res.Balance)
	assert.Equal(t, domain.PaymentSourceRemote, res.Source)
	assert.Equal(t, 25.0, l.value)
	assert.Equal(t, 25.0, ledger.Current())
}

func TestLoad_RemoteUnreachableKeepsLocal(t *testing.T) {
	r, l := remote(25), local(10)
	r.getErr = errUnreachable

	ledger := NewLedger(r, l, quietLog())
	res, err := ledger.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Balance)
	assert.Equal(t, domain.PaymentSourceLocal, res.Source)
}

func TestLoad_NothingStored(t *testing.T) {
	r := &fakeSource{name: domain.PaymentSourceRemote}
	l := &fakeSource{name: domain.PaymentSourceLocal}

	ledger := NewLedger(r, l, quietLog())
	res, err := ledger.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Balance)
}

func TestAdjust_RemoteDebitConverges(t *testing.T) {
	r, l := remote(20), local(20)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), -5)

	assert.Equal(t, domain.PaymentSourceRemote, res.Source)
	assert.Equal(t, 15.0, res.Balance)
	assert.True(t, res.Persisted)
	assert.Equal(t, 15.0, r.value)
	assert.Equal(t, 15.0, l.value)
}

func TestAdjust_UsesRemoteValueAsBase(t *testing.T) {
	r, l := remote(20), local(20)
	ledger := loadedLedger(t, r, l)

	// Another device changed the remote copy.
	r.value = 30

	res := ledger.Adjust(context.Background(), -5)
	assert.Equal(t, 25.0, res.Balance)
	assert.Equal(t, 25.0, l.value)
}

func TestAdjust_WriteBackFailureFallsBackToLocal(t *testing.T) {
	r, l := remote(20), local(20)
	ledger := loadedLedger(t, r, l)
	r.putErr = errUnreachable

	res := ledger.Adjust(context.Background(), -5)

	assert.Equal(t, domain.PaymentSourceLocal, res.Source)
	assert.Equal(t, 15.0, res.Balance)
	assert.Equal(t, 15.0, l.value)
	assert.Equal(t, 20.0, r.value)
}

func TestAdjust_LocalDebitClampsAtZero(t *testing.T) {
	r, l := remote(2), local(2)
	ledger := loadedLedger(t, r, l)
	r.getErr = errUnreachable

	res := ledger.Adjust(context.Background(), -5)

	assert.Equal(t, 0.0, res.Balance)
	assert.Equal(t, 0.0, l.value)
}

func TestAdjust_RemoteDebitClampsAtZero(t *testing.T) {
	r, l := remote(2), local(2)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), -5)

	assert.Equal(t, domain.PaymentSourceRemote, res.Source)
	assert.Equal(t, 0.0, res.Balance)
	assert.Equal(t, []float64{0}, r.puts)
	assert.Equal(t, 0.0, l.value)
	assert.Equal(t, 0.0, ledger.Current())
}

func TestAdjust_CreditCreatesMissingWallet(t *testing.T) {
	r := &fakeSource{name: domain.PaymentSourceRemote}
	l := local(0)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), 20)

	assert.Equal(t, domain.PaymentSourceRemote, res.Source)
	assert.Equal(t, 20.0, res.Balance)
	assert.Equal(t, []float64{20}, r.created)
	assert.Equal(t, 20.0, l.value)
}

func TestAdjust_CreatedWalletCarriesLocalBalance(t *testing.T) {
	r := &fakeSource{name: domain.PaymentSourceRemote}
	l := local(3)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), 10)

	assert.Equal(t, 13.0, res.Balance)
	assert.Equal(t, []float64{13}, r.created)
}

func TestAdjust_CreateFailureFallsBackToLocal(t *testing.T) {
	r := &fakeSource{name: domain.PaymentSourceRemote, createErr: errUnreachable}
	l := local(3)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), 10)

	assert.Equal(t, domain.PaymentSourceLocal, res.Source)
	assert.Equal(t, 13.0, res.Balance)
}

func TestAdjust_LocalPersistFailureKeepsMemory(t *testing.T) {
	r, l := remote(20), local(20)
	ledger := loadedLedger(t, r, l)
	l.putErr = errors.New("redis down")

	res := ledger.Adjust(context.Background(), -5)

	assert.False(t, res.Persisted)
	assert.Equal(t, 15.0, res.Balance)
	assert.Equal(t, 15.0, ledger.Current())
}

func TestAdjust_RoundsToCents(t *testing.T) {
	r, l := remote(10), local(10)
	ledger := loadedLedger(t, r, l)

	res := ledger.Adjust(context.Background(), -0.3)
	assert.Equal(t, 9.7, res.Balance)
}

func TestDebitLocal(t *testing.T) {
	r, l := remote(10), local(10)
	ledger := loadedLedger(t, r, l)

	res, err := ledger.DebitLocal(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSourceLocal, res.Source)
	assert.Equal(t, 5.0, res.Balance)
	assert.Equal(t, 5.0, l.value)
	assert.Equal(t, 10.0, r.value)
}

func TestDebitLocal_InsufficientFunds(t *testing.T) {
	r, l := remote(2), local(2)
	ledger := loadedLedger(t, r, l)

	_, err := ledger.DebitLocal(context.Background(), 5)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 2.0, ledger.Current())
	assert.Equal(t, 2.0, l.value)
}

func TestRefresh_KeepsValueWhenRemoteDown(t *testing.T) {
	r, l := remote(8), local(8)
	ledger := loadedLedger(t, r, l)
	r.getErr = errUnreachable

	res := ledger.Refresh(context.Background())

	assert.Equal(t, 8.0, res.Balance)
	assert.Equal(t, domain.PaymentSourceLocal, res.Source)
}
