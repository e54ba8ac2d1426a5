package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contaclara/recon_backend/internal/core/domain"
)

func TestIdempotencyKey(t *testing.T) {
	key := domain.IdempotencyKey("tenant-1", "inv-1")

	assert.Len(t, key, 64)
	assert.Equal(t, key, domain.IdempotencyKey("tenant-1", "inv-1"), "same document must derive the same key")
	assert.NotEqual(t, key, domain.IdempotencyKey("tenant-2", "inv-1"), "keys are tenant scoped")
	assert.NotEqual(t, key, domain.IdempotencyKey("tenant-1", "inv-2"))
}

func TestBatchItem_IsTerminal(t *testing.T) {
	assert.False(t, domain.BatchItem{Status: domain.ItemQueued}.IsTerminal())
	assert.False(t, domain.BatchItem{Status: domain.ItemProcessing}.IsTerminal())
	assert.True(t, domain.BatchItem{Status: domain.ItemCompleted}.IsTerminal())
	assert.True(t, domain.BatchItem{Status: domain.ItemError}.IsTerminal())
}
