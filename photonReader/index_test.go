package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scintsim "github.com/next-exp/scintsim_go/pkg"
)

func TestStreamIndex(t *testing.T) {
	index := NewStreamIndex()
	assert.True(t, index.Add(0, 3))
	assert.True(t, index.Add(1, 0))
	assert.True(t, index.Add(4, 2))
	assert.False(t, index.Add(1, 1))

	assert.Equal(t, uint64(3), index.Blocks())
	assert.Equal(t, uint64(6), index.Photons())
	assert.Equal(t, []uint32{1}, index.Duplicates())
	assert.Equal(t, []uint32{2, 3}, index.Missing())
}

func TestStreamIndexMerge(t *testing.T) {
	a := NewStreamIndex()
	a.Add(0, 1)
	a.Add(2, 1)
	b := NewStreamIndex()
	b.Add(1, 1)
	b.Add(2, 1)

	a.Merge(b)
	assert.Equal(t, uint64(3), a.Blocks())
	assert.Equal(t, []uint32{2}, a.Duplicates())
	assert.Empty(t, a.Missing())
	assert.Equal(t, uint64(4), a.Photons())
}

func TestReadStream(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "photons.bin")
	w, err := scintsim.OpenPhotonStream(filename)
	require.NoError(t, err)
	require.NoError(t, w.WriteEvent(0, scintsim.PhotonList{{X: 1, Y: 2, Time: 3, Wavelength: 400}}))
	require.NoError(t, w.WriteEvent(1, nil))
	require.NoError(t, w.WriteEvent(2, scintsim.PhotonList{{}, {}}))
	require.NoError(t, w.Close())

	index, err := readStream(filename, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), index.Blocks())
	assert.Equal(t, uint64(3), index.Photons())

	// Cut the last record in half.
	info, err := os.Stat(filename)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(filename, info.Size()-16))

	index, err = readStream(filename, false)
	require.Error(t, err)
	assert.Equal(t, uint64(2), index.Blocks())
}

func TestReadStreamWrongFile(t *testing.T) {
	// A gossip file read as a photon stream: the charge lands in the count.
	filename := filepath.Join(t.TempDir(), "gossip.bin")
	w, err := scintsim.OpenGossipStream(filename)
	require.NoError(t, err)
	require.NoError(t, w.WriteEvent(scintsim.GossipBlock{EventIndex: 0, Charge: 1e300, Sampling: 2}))
	require.NoError(t, w.Close())

	index, err := readStream(filename, false)
	require.Error(t, err)
	assert.Equal(t, uint64(0), index.Blocks())
}
