package mem

import (
	"sync"
	"time"
)

// GatewayStatus is the cached slice of a KPay status-check response.
type GatewayStatus struct {
	StatusID          string
	StatusDescription string
	ReturnCode        int
	MomTransactionID  string
}

// StatusCache keeps the last pending gateway answer per payment for a
// short TTL so aggressive client polling does not hammer KPay. Advisory
// only: reconciliation correctness lives in the database check-and-set,
// never here.
type StatusCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]statusEntry
}

type statusEntry struct {
	status    GatewayStatus
	expiresAt time.Time
}

func NewStatusCache(ttl time.Duration) *StatusCache {
	return &StatusCache{
		ttl:  ttl,
		data: make(map[string]statusEntry),
	}
}

func (c *StatusCache) Set(paymentID string, status GatewayStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[paymentID] = statusEntry{
		status:    status,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *StatusCache) Get(paymentID string) (GatewayStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[paymentID]
	if !ok || time.Now().After(e.expiresAt) {
		return GatewayStatus{}, false
	}
	return e.status, true
}

func (c *StatusCache) Invalidate(paymentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, paymentID)
}
