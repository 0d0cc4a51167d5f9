package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchUID_Format(t *testing.T) {
	assert.Equal(t, "BAT-101-0005", BatchUID(101, 5))
	assert.Equal(t, "BAT-1-0000", BatchUID(1, 0))
	assert.Equal(t, "BAT-42-9999", BatchUID(42, 9999))
}

func TestBatchUID_CollisionFree(t *testing.T) {
	// Deterministic and collision-free for sequences 0-9999 within a product.
	seen := make(map[string]struct{}, 10000)
	for seq := int64(0); seq < 10000; seq++ {
		uid := BatchUID(101, seq)
		_, dup := seen[uid]
		assert.False(t, dup, "duplicate uid %s at seq %d", uid, seq)
		seen[uid] = struct{}{}
	}
}

func TestIsBatchUID(t *testing.T) {
	assert.True(t, IsBatchUID("BAT-101-0005"))
	assert.True(t, IsBatchUID("BAT-"))
	assert.False(t, IsBatchUID("XYZ-1"))
	assert.False(t, IsBatchUID(""))
	assert.False(t, IsBatchUID("bat-101-0005"))
}
