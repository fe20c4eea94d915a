package search

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBackendOpen is returned when a search backend is skipped because it
// has failed too many times in a row.
var ErrBackendOpen = eris.New("search: backend circuit open")

const (
	breakerFailureThreshold = 3
	breakerCooldown         = 30 * time.Second
)

// backendBreaker trips after consecutive backend failures so a dead search
// tier is skipped instead of retried on every message. After the cooldown a
// single probe call is allowed; success closes the breaker again.
type backendBreaker struct {
	name string

	mu       sync.Mutex
	failures int
	openedAt time.Time

	now func() time.Time
}

func newBackendBreaker(name string) *backendBreaker {
	return &backendBreaker{name: name, now: time.Now}
}

// call runs fn unless the breaker is open and still cooling down.
func (b *backendBreaker) call(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

func (b *backendBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < breakerFailureThreshold {
		return nil
	}
	if b.now().Sub(b.openedAt) >= breakerCooldown {
		// Let one probe through; record decides what happens next.
		return nil
	}
	return ErrBackendOpen
}

func (b *backendBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.failures >= breakerFailureThreshold {
			zap.L().Info("search: backend recovered", zap.String("backend", b.name))
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.failures == breakerFailureThreshold {
		b.openedAt = b.now()
		zap.L().Warn("search: backend circuit opened",
			zap.String("backend", b.name),
			zap.Int("failures", b.failures),
		)
	} else if b.failures > breakerFailureThreshold {
		// Failed probe: restart the cooldown.
		b.openedAt = b.now()
	}
}
