package astiepg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackContent(t *testing.T) {
	assert.Equal(t, byte(0x13), PackContent(0x1, 0x3))
	assert.Equal(t, byte(0xf0), PackContent(0xf, 0x0))
	// The low nibble is masked so a caller passing an out-of-range value
	// can't corrupt the high nibble.
	assert.Equal(t, byte(0x1f), PackContent(0x1, 0xff))
}
