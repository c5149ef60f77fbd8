package astits

import (
	"bytes"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
)

var tdt = &TDTData{
	UTCTime: dvbTime,
}

func tdtBytes() []byte {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write(dvbTimeBytes) // UTC time
	return buf.Bytes()
}

func TestParseTDTSection(t *testing.T) {
	d, err := parseTDTSection(bitio.NewCountReader(bytes.NewReader(tdtBytes())))
	assert.Equal(t, tdt, d)
	assert.NoError(t, err)
}
