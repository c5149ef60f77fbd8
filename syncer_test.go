package astiepg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionSyncerCheck(t *testing.T) {
	s := NewSectionSyncer()
	assert.Equal(t, int16(-1), s.Version())

	// First sighting of any section is new.
	assert.True(t, s.Check(1, 0))
	s.Processed(0, 1, 1)

	// Same (version, section) seen again is not new.
	assert.False(t, s.Check(1, 0))

	// A different section under the same version is still new.
	assert.True(t, s.Check(1, 1))
}

func TestSectionSyncerVersionBump(t *testing.T) {
	s := NewSectionSyncer()
	assert.True(t, s.Check(1, 0))
	s.Processed(0, 1, 1)
	assert.True(t, s.Check(1, 1))
	s.Processed(1, 1, 1)
	assert.True(t, s.Complete())

	// A version bump resets the seen bitmap entirely, even for sections
	// already marked complete under the old version.
	assert.True(t, s.Check(2, 0))
	assert.Equal(t, int16(2), s.Version())
	assert.False(t, s.Complete())
}

func TestSectionSyncerComplete(t *testing.T) {
	s := NewSectionSyncer()
	s.Check(0, 0)
	assert.False(t, s.Processed(0, 2, 2))
	s.Check(0, 1)
	assert.False(t, s.Processed(1, 2, 2))
	s.Check(0, 2)
	assert.True(t, s.Processed(2, 2, 2))
	assert.True(t, s.Complete())
}
