package bankmap

import (
	"sync"

	"github.com/bankgreen/bankmap/pkg/differ"
	"github.com/bankgreen/bankmap/pkg/store"
)

// Hook types for sync events.
type (
	// BankAddedHook is called for each row inserted into the remote store.
	BankAddedHook func(row store.Fields)

	// BankUpdatedHook is called for each remote row rewritten.
	BankUpdatedHook func(update differ.RowUpdate)

	// BankRemovedHook is called for each remote row deleted.
	BankRemovedHook func(record store.Record)
)

type hooks struct {
	mu      sync.RWMutex
	added   []BankAddedHook
	updated []BankUpdatedHook
	removed []BankRemovedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnBankAdded(fn BankAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, fn)
}

func (h *hooks) OnBankUpdated(fn BankUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = append(h.updated, fn)
}

func (h *hooks) OnBankRemoved(fn BankRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, fn)
}

// trigger runs the hooks for an applied changeset.
func (h *hooks) trigger(cs *differ.Changeset) {
	if cs == nil {
		return
	}

	h.mu.RLock()
	added := append([]BankAddedHook(nil), h.added...)
	updated := append([]BankUpdatedHook(nil), h.updated...)
	removed := append([]BankRemovedHook(nil), h.removed...)
	h.mu.RUnlock()

	for _, r := range cs.Deleted {
		for _, fn := range removed {
			fn(r)
		}
	}
	for _, u := range cs.Updated {
		for _, fn := range updated {
			fn(u)
		}
	}
	for _, row := range cs.Inserted {
		for _, fn := range added {
			fn(row)
		}
	}
}
