package memory

import (
	"testing"

	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) tracking.Store { return New() })
}
