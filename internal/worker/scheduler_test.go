package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-tracker/internal/models"
	"github.com/wallet-tracker/internal/provider"
	"github.com/wallet-tracker/internal/types"
)

const otherAddress = "0x4444444444444444444444444444444444444444"

func newTestScheduler(t *testing.T, fetcher *fakeFetcher, states *fakeStates, ledger TransactionStore) *SyncScheduler {
	t.Helper()
	coordinator := newTestCoordinator(t, fetcher, states, ledger)
	scheduler, err := NewSyncScheduler(coordinator, states, testSyncConfig(), nil)
	require.NoError(t, err)
	return scheduler
}

func TestRunCycleSyncsEligiblePairs(t *testing.T) {
	fetcher := newFakeFetcher()
	states := newFakeStates()
	ledger := newFakeLedger()

	first := uuid.New()
	second := uuid.New()
	states.eligible = []*models.SyncTarget{
		{WalletID: first, Address: testAddress, Network: types.NetworkEthMainnet},
		{WalletID: second, Address: otherAddress, Network: types.NetworkPolygonMainnet},
	}

	fetcher.pages[types.DirectionIncoming] = []provider.TransferPage{{
		Transfers: []provider.Transfer{
			transfer("0xaa1", "0xa", "0x2222222222222222222222222222222222222222", testAddress),
		},
	}}

	scheduler := newTestScheduler(t, fetcher, states, ledger)
	require.True(t, scheduler.RunCycle(context.Background()))

	assert.Equal(t, types.SyncStatusCompleted, states.get(first, types.NetworkEthMainnet).Status)
	assert.Equal(t, types.SyncStatusCompleted, states.get(second, types.NetworkPolygonMainnet).Status)
}

func TestRunCycleIsolatesPairFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	states := newFakeStates()
	ledger := newFakeLedger()

	bad := uuid.New()
	good := uuid.New()
	states.eligible = []*models.SyncTarget{
		{WalletID: bad, Address: testAddress, Network: types.NetworkEthMainnet},
		{WalletID: good, Address: otherAddress, Network: types.NetworkEthMainnet},
	}
	fetcher.errAddr[testAddress] = fmt.Errorf("provider unavailable")

	scheduler := newTestScheduler(t, fetcher, states, ledger)
	require.True(t, scheduler.RunCycle(context.Background()))

	badState := states.get(bad, types.NetworkEthMainnet)
	assert.Equal(t, types.SyncStatusFailed, badState.Status)
	assert.Equal(t, 1, badState.ErrorCount)

	// The failed pair must not stop the cycle
	assert.Equal(t, types.SyncStatusCompleted, states.get(good, types.NetworkEthMainnet).Status)
}

func TestRunCycleSkipsWhileLatchHeld(t *testing.T) {
	fetcher := newFakeFetcher()
	states := newFakeStates()
	ledger := newFakeLedger()
	states.eligible = []*models.SyncTarget{
		{WalletID: uuid.New(), Address: testAddress, Network: types.NetworkEthMainnet},
	}

	scheduler := newTestScheduler(t, fetcher, states, ledger)
	scheduler.running.Store(true)

	assert.False(t, scheduler.RunCycle(context.Background()))
	assert.Equal(t, 0, states.listCalls)
	assert.Empty(t, fetcher.queries)

	// Once the latch is released the next cycle proceeds
	scheduler.running.Store(false)
	assert.True(t, scheduler.RunCycle(context.Background()))
	assert.Equal(t, 1, states.listCalls)
}
