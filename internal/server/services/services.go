// Package services holds the business rules behind the GraphQL resolvers:
// registration and login, and product management with the invariant that a
// user's product list names exactly the products that user created.
//
// Every method returns *apperr.Error values for failures the caller should
// see; unexpected storage errors are logged and surfaced as 500s.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/google/uuid"
)

const internalMessage = "Internal server error."

func internalError(ctx context.Context, log logging.Logger, op string, err error) error {
	log.Error(ctx, op+" failed", "error", err)
	return apperr.Internal(err, internalMessage)
}

func newID() string {
	return uuid.NewString()
}

// clock hands out millisecond timestamps that strictly increase within the
// process, so consecutive writes never share an updatedAt.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{now: now}
}

func (c *clock) stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

// after returns a stamp that is also strictly later than prev.
func (c *clock) after(prev time.Time) time.Time {
	t := c.stamp()
	if !t.After(prev) {
		t = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return t
}
