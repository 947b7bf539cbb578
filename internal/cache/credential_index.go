package cache

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

// ErrCredentialTaken signals that a freshly generated code collides with one
// held by a still-active order. The caller is expected to redraw.
var ErrCredentialTaken = errors.New("credential already in use")

type ActiveOrderLister interface {
	ListActiveOrders(ctx context.Context) ([]storage.Order, error)
}

// CredentialIndex is the in-memory uniqueness authority for active
// credentials. Reserve is the single atomic point deciding whether a pair of
// codes may be issued; storage stays the source of truth for everything else.
type CredentialIndex struct {
	mu         sync.RWMutex
	byDeposit  map[string]int64
	byWithdraw map[string]int64
}

func NewCredentialIndex() *CredentialIndex {
	return &CredentialIndex{
		byDeposit:  make(map[string]int64),
		byWithdraw: make(map[string]int64),
	}
}

// LoadInitialData seeds the index from the active orders on record so that
// restarts cannot reissue a live credential.
func (c *CredentialIndex) LoadInitialData(ctx context.Context, lister ActiveOrderLister) error {
	orders, err := lister.ListActiveOrders(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, order := range orders {
		c.byDeposit[order.DepositCode] = order.OrderID
		c.byWithdraw[order.WithdrawPassword] = order.OrderID
	}
	zap.S().Infow("credential index loaded", "active_orders", len(orders))
	return nil
}

// Reserve claims both codes for orderID, or claims neither.
func (c *CredentialIndex) Reserve(depositCode, withdrawPassword string, orderID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A draw where both codes come out identical is ambiguous on its own.
	if depositCode == withdrawPassword {
		return ErrCredentialTaken
	}
	if _, taken := c.byDeposit[depositCode]; taken {
		return ErrCredentialTaken
	}
	if _, taken := c.byWithdraw[withdrawPassword]; taken {
		return ErrCredentialTaken
	}
	// The two namespaces are independent on lookup but a single keypad entry
	// must never be ambiguous, so cross-check both maps.
	if _, taken := c.byWithdraw[depositCode]; taken {
		return ErrCredentialTaken
	}
	if _, taken := c.byDeposit[withdrawPassword]; taken {
		return ErrCredentialTaken
	}

	c.byDeposit[depositCode] = orderID
	c.byWithdraw[withdrawPassword] = orderID
	return nil
}

// Release frees the codes once their order reached the terminal status.
func (c *CredentialIndex) Release(depositCode, withdrawPassword string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byDeposit, depositCode)
	delete(c.byWithdraw, withdrawPassword)
}

func (c *CredentialIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byDeposit)
}
