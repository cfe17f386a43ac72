package memory

import (
	"testing"

	"budgetboard/internal/ledger"
	"budgetboard/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ledger.Store {
		return New()
	})
}
