package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

type staticLister struct {
	orders []storage.Order
}

func (l *staticLister) ListActiveOrders(ctx context.Context) ([]storage.Order, error) {
	return l.orders, nil
}

func TestReserveAndRelease(t *testing.T) {
	idx := NewCredentialIndex()

	require.NoError(t, idx.Reserve("aaa111", "bbb222", 1))
	assert.ErrorIs(t, idx.Reserve("aaa111", "zzz999", 2), ErrCredentialTaken)
	assert.ErrorIs(t, idx.Reserve("ccc333", "bbb222", 2), ErrCredentialTaken)
	// Cross-namespace collisions are rejected too.
	assert.ErrorIs(t, idx.Reserve("bbb222", "ddd444", 2), ErrCredentialTaken)
	assert.ErrorIs(t, idx.Reserve("eee555", "aaa111", 2), ErrCredentialTaken)

	idx.Release("aaa111", "bbb222")
	assert.NoError(t, idx.Reserve("aaa111", "bbb222", 3))
}

func TestReserveRejectsIdenticalPair(t *testing.T) {
	idx := NewCredentialIndex()

	assert.ErrorIs(t, idx.Reserve("aaa111", "aaa111", 1), ErrCredentialTaken)
	// Neither namespace may end up holding the ambiguous code.
	assert.Equal(t, 0, idx.Len())
	assert.NoError(t, idx.Reserve("aaa111", "bbb222", 1))
}

func TestReserveClaimsNeitherOnConflict(t *testing.T) {
	idx := NewCredentialIndex()

	require.NoError(t, idx.Reserve("aaa111", "bbb222", 1))
	require.Error(t, idx.Reserve("fff666", "bbb222", 2))

	// The deposit code of the failed reservation must remain free.
	assert.NoError(t, idx.Reserve("fff666", "ggg777", 2))
}

func TestLoadInitialData(t *testing.T) {
	idx := NewCredentialIndex()
	lister := &staticLister{orders: []storage.Order{
		{OrderID: 1, DepositCode: "aaa111", WithdrawPassword: "bbb222", Status: storage.StatusDeposited},
		{OrderID: 2, DepositCode: "ccc333", WithdrawPassword: "ddd444", Status: storage.StatusCustomerDeposited},
	}}

	require.NoError(t, idx.LoadInitialData(context.Background(), lister))
	assert.Equal(t, 2, idx.Len())
	assert.ErrorIs(t, idx.Reserve("aaa111", "xxx000", 3), ErrCredentialTaken)
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	idx := NewCredentialIndex()

	var wg sync.WaitGroup
	successes := make(chan int64, 16)
	for i := int64(1); i <= 16; i++ {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			if err := idx.Reserve("same11", "same22", orderID); err == nil {
				successes <- orderID
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners []int64
	for id := range successes {
		winners = append(winners, id)
	}
	assert.Len(t, winners, 1)
}
