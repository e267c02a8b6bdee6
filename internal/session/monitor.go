package session

import (
	"context"
	"errors"
	"time"

	"github.com/g-but/fitfoot/internal/apperrors"
	"github.com/g-but/fitfoot/internal/models"
)

// StartMonitor checks the active token right away and then every MonitorInterval until ctx is done.
// There is one monitor per manager: later calls return the channel of the running one.
// The returned channel is closed when the monitor stops.
func (m *Manager) StartMonitor(ctx context.Context) <-chan struct{} {
	m.monitorOnce.Do(func() {
		m.Initialize()

		done := make(chan struct{})
		m.monitorDone = done
		m.logger.Debug("Starting session monitor", "interval", m.interval)

		go func() {
			defer close(done)

			ticker := time.NewTicker(m.interval)
			defer ticker.Stop()

			m.CheckExpiration(ctx)

			for {
				select {
				case <-ctx.Done():
					m.logger.Debug("Session monitor stopped by context")
					return
				case <-ticker.C:
					m.CheckExpiration(ctx)
				}
			}
		}()
	})

	return m.monitorDone
}

// CheckExpiration inspects the active token once:
// expired tokens log their slot out, tokens close to expiry raise the expiring flag and get refreshed.
// Tokens without structure or exp are left alone, undecodable payloads clear the slot.
func (m *Manager) CheckExpiration(ctx context.Context) {
	slot, token, ok := m.activeToken()
	if !ok {
		return
	}

	exp, err := tokenExpiry(token)
	switch {
	case errors.Is(err, apperrors.ErrTokenMalformed), errors.Is(err, apperrors.ErrTokenNoExpiry):
		m.logger.Warn("Token can't be checked for expiration", "slot", slot, "error", err)
		return
	case err != nil:
		m.logger.Error("Token validation failed, clearing session", "slot", slot, "error", err)
		m.clearSlot(slot)
		return
	}

	ttl := exp.Sub(m.now())

	if ttl <= 0 {
		m.logger.Info("Token expired", "slot", slot, "expired_at", exp)
		if slot == models.SlotAdmin {
			m.LogoutAdmin(ctx)
		} else {
			m.Logout(ctx)
		}
		return
	}

	if ttl <= m.warnBefore {
		m.mu.Lock()
		m.expiring = slot
		m.mu.Unlock()
	}

	if ttl <= m.refreshBefore {
		m.logger.Debug("Token expires soon, refreshing", "slot", slot, "ttl", ttl)
		// failure is recorded in LastError; the slot stays until the token really expires
		_ = m.RefreshToken(ctx)
	}
}
