package valkey

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LockFunc is the shape consumed by components that only need best-effort
// mutual exclusion and must keep working when no Valkey is deployed.
type LockFunc func(key string, expiration time.Duration) bool

// AcquireLockFunc builds a LockFunc over SET NX EX. A nil client yields nil,
// which callers treat as "no lock configured". Errors count as not acquired:
// the guarded operations are safe without the lock, it only suppresses
// duplicate work.
func AcquireLockFunc(client *Client) LockFunc {
	if client == nil {
		return nil
	}
	return func(key string, expiration time.Duration) bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		inner := client.Inner()
		res := inner.Do(ctx, inner.B().Set().Key(client.Key(key)).Value("1").Nx().Ex(expiration).Build())
		if err := res.Error(); err != nil {
			if IsNil(err) {
				return false // someone else holds it
			}
			logrus.WithError(err).Warnf("[VALKEY] Lock %s unavailable", key)
			return false
		}
		return true
	}
}
