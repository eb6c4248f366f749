package store

import "testing"

func TestInMemoryStore(t *testing.T) {
	runStoreConformance(t, func(t *testing.T) memberStore {
		return NewInMemory()
	})
}
