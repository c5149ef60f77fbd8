package astiepg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEitTablesPresentFollowing(t *testing.T) {
	tables := NewEitTables()

	assert.True(t, tables.Check(TableIDPresentFollowing, 1, 0))
	assert.False(t, tables.PresentFollowingComplete())
	assert.False(t, tables.Processed(TableIDPresentFollowing, TableIDPresentFollowing, 0, 1, 1))

	assert.True(t, tables.Check(TableIDPresentFollowing, 1, 1))
	assert.True(t, tables.Processed(TableIDPresentFollowing, TableIDPresentFollowing, 1, 1, 1))
	assert.True(t, tables.PresentFollowingComplete())
}

func TestEitTablesAggregateCompletion(t *testing.T) {
	tables := NewEitTables()

	// Tables 0x4E and 0x4F, single section each, so every syncer below
	// 0x50 is already complete.
	tables.Check(TableIDPresentFollowing, 1, 0)
	tables.Processed(TableIDPresentFollowing, TableIDPresentFollowing, 0, 0, 0)
	tables.Check(TableIDPresentFollowingOther, 1, 0)
	tables.Processed(TableIDPresentFollowingOther, TableIDPresentFollowingOther, 0, 0, 0)

	// Schedule table 0x50, single section.
	tables.Check(0x50, 1, 0)
	complete := tables.Processed(0x50, 0x50, 0, 0, 0)
	assert.True(t, complete)
	assert.True(t, tables.Complete())

	// A second schedule table bumps lastTableID; the aggregate flag drops
	// until that table also completes.
	tables.Check(0x51, 1, 0)
	complete = tables.Processed(0x51, 0x51, 0, 1, 1)
	assert.False(t, complete)
	assert.False(t, tables.Complete())

	tables.Check(0x51, 1, 1)
	complete = tables.Processed(0x51, 0x51, 1, 1, 1)
	assert.True(t, complete)
	assert.True(t, tables.Complete())
}

func TestEitTablesStartEnd(t *testing.T) {
	tables := NewEitTables()
	start := time.Date(2026, time.July, 29, 20, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	tables.SetTableStart(start)
	tables.SetTableEnd(end)
	assert.Equal(t, start, tables.TableStart())
	assert.Equal(t, end, tables.TableEnd())
}

func TestEitTablesHash(t *testing.T) {
	h := NewEitTablesHash()
	assert.Equal(t, 0, h.Len())

	_, ok := h.Get(1)
	assert.False(t, ok)

	t1 := NewEitTables()
	h.Add(1, t1)
	got, ok := h.Get(1)
	assert.True(t, ok)
	assert.Same(t, t1, got)
	assert.Equal(t, 1, h.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	_, ok = h.Get(1)
	assert.False(t, ok)
}
