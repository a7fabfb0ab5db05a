package vault

import (
	"time"

	"go.uber.org/zap"
)

// StartSweeper launches a background goroutine that evicts expired
// sessions on a fixed interval, the same eager-cleanup shape the
// control-plane's policy cache uses so the table doesn't only shrink on
// the access path. Call the returned stop function to halt it.
func (v *Vault) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				v.sweepExpired()
			case <-done:
				return
			}
		}
	}()

	return func() {
		v.sweepOnce.Do(func() { close(done) })
	}
}

func (v *Vault) sweepExpired() {
	now := time.Now()

	v.mu.Lock()
	defer v.mu.Unlock()

	var expired []string
	for id, s := range v.entries {
		if now.After(s.expiresAt) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s := v.entries[id]
		v.lruList.Remove(s.element)
		delete(v.entries, id)
	}

	if len(expired) > 0 {
		v.logger.Debug("vault sweep evicted expired sessions", zap.Int("count", len(expired)))
	}
}
