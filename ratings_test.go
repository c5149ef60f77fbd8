package astiepg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapParentalRating(t *testing.T) {
	assert.Equal(t, 0, MapParentalRating(0x00))
	assert.Equal(t, 4, MapParentalRating(0x01))
	assert.Equal(t, 18, MapParentalRating(0x0f))
	assert.Equal(t, 10, MapParentalRating(0x11))
	assert.Equal(t, 12, MapParentalRating(0x12))
	assert.Equal(t, 16, MapParentalRating(0x13))
	assert.Equal(t, 0, MapParentalRating(0x14))
	assert.Equal(t, 0, MapParentalRating(0xff))
}
