package astiepg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeVPSTime(t *testing.T) {
	// Ordinary case: PDC month matches now's month, same year.
	now := time.Date(2026, time.July, 15, 10, 0, 0, 0, time.UTC)
	got := computeVPSTime(now, time.July, 20, 21, 30)
	assert.Equal(t, time.Date(2026, time.July, 20, 21, 30, 0, 0, time.UTC), got)

	// A December broadcast announcing a January rerun rolls the year forward.
	now = time.Date(2026, time.December, 30, 10, 0, 0, 0, time.UTC)
	got = computeVPSTime(now, time.January, 2, 20, 0)
	assert.Equal(t, time.Date(2027, time.January, 2, 20, 0, 0, 0, time.UTC), got)

	// A January broadcast referencing a December airing rolls the year back.
	now = time.Date(2026, time.January, 2, 10, 0, 0, 0, time.UTC)
	got = computeVPSTime(now, time.December, 30, 20, 0)
	assert.Equal(t, time.Date(2025, time.December, 30, 20, 0, 0, 0, time.UTC), got)
}
