package scintsim

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePhotonBlock(t *testing.T) {
	photons := PhotonList{{X: 1, Y: 2, Time: 3, Wavelength: 400}, {X: 5, Y: 6, Time: 7, Wavelength: 450}}
	b := EncodePhotonBlock(nil, 7, photons)
	require.Len(t, b, 8+2*32)

	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, 1.0, math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])))
	assert.Equal(t, 400.0, math.Float64frombits(binary.LittleEndian.Uint64(b[32:40])))
	assert.Equal(t, 450.0, math.Float64frombits(binary.LittleEndian.Uint64(b[64:72])))

	block, err := NewPhotonStreamReader(bytes.NewReader(b)).Next()
	require.NoError(t, err)
	assert.Equal(t, PhotonBlock{EventIndex: 7, Photons: photons}, block)
}

func TestPhotonStreamEmptyEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewPhotonStreamWriter(&buf)
	require.NoError(t, w.WriteEvent(0, nil))
	assert.Equal(t, 8, buf.Len())
	assert.Equal(t, 1, w.Blocks())
	assert.NoError(t, w.Close())
}

func TestPhotonStreamAppends(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "photons.bin")
	for i := int32(0); i < 2; i++ {
		w, err := OpenPhotonStream(filename)
		require.NoError(t, err)
		require.NoError(t, w.WriteEvent(i, PhotonList{{X: float64(i)}}))
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
	}

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	reader := NewPhotonStreamReader(f)
	for i := int32(0); i < 2; i++ {
		block, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, i, block.EventIndex)
		assert.Equal(t, float64(i), block.Photons[0].X)
	}
	_, err = reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPhotonStreamTruncated(t *testing.T) {
	b := EncodePhotonBlock(nil, 1, PhotonList{{}, {}})
	_, err := NewPhotonStreamReader(bytes.NewReader(b[:len(b)-5])).Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPhotonStreamCorruptCount(t *testing.T) {
	header := binary.LittleEndian.AppendUint32(nil, 0)
	header = binary.LittleEndian.AppendUint32(header, math.MaxUint32)
	_, err := NewPhotonStreamReader(bytes.NewReader(header)).Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Two complete chunks and then the stream ends.
	b := append(header, make([]byte, 2*readChunkSize*photonRecordSize)...)
	_, err = NewPhotonStreamReader(bytes.NewReader(b)).Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPhotonStreamLargeBlock(t *testing.T) {
	photons := make(PhotonList, readChunkSize+3)
	photons[readChunkSize+2].Wavelength = 420
	block, err := NewPhotonStreamReader(bytes.NewReader(EncodePhotonBlock(nil, 9, photons))).Next()
	require.NoError(t, err)
	assert.Equal(t, photons, block.Photons)
}

func TestOpenPhotonStreamError(t *testing.T) {
	_, err := OpenPhotonStream(filepath.Join(t.TempDir(), "missing", "photons.bin"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

func TestGossipStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewGossipStreamWriter(&buf)
	blocks := []GossipBlock{
		{EventIndex: 0, Charge: 12.5, Sampling: 2, Amplitudes: []float64{0, 3, 1}},
		{EventIndex: 1, Sampling: 2, Amplitudes: []float64{}},
	}
	for _, b := range blocks {
		require.NoError(t, w.WriteEvent(b))
	}
	assert.Equal(t, 24+24+24, buf.Len())

	for _, want := range blocks {
		got, err := ReadGossipBlock(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ReadGossipBlock(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGossipBlockCorruptCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGossipStreamWriter(&buf).WriteEvent(GossipBlock{EventIndex: 2}))
	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b[20:24], math.MaxUint32)

	_, err := ReadGossipBlock(bytes.NewReader(b))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPhotonList(t *testing.T) {
	var l PhotonList
	l.AddPhoton(1, 2, 3, 4)
	assert.Equal(t, PhotonList{{1, 2, 3, 4}}, l)
	l.Clear()
	assert.Empty(t, l)
}

func TestWavelength(t *testing.T) {
	// 2.95 eV is about 420 nm.
	assert.InDelta(t, 420.3, Wavelength(2.95*EV)/Nm, 0.1)
	assert.Zero(t, Wavelength(0))
}
