package scintsim

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHDF5Writer(t *testing.T) {
	withConfig(t, DefaultConfiguration())
	filename := filepath.Join(t.TempDir(), "out.h5")
	w, err := NewHDF5Writer(filename)
	require.NoError(t, err)

	analysis := NewAnalysisManager(w)
	var event int32
	var edep, times []float64
	scint, table := analysis.CreateTable("hits", RowPerEntry)
	table.Int32("event_id", &event).Float64s("edep", &edep)
	require.NoError(t, analysis.FinishTable(scint))
	photons, table := analysis.CreateTable("photons", RowPerEvent)
	table.Int32("event_id", &event).Float64s("time", &times)
	require.NoError(t, analysis.FinishTable(photons))
	require.NoError(t, w.CreateTable(table.Schema()))

	for i := int32(0); i < 3; i++ {
		event = i
		edep = []float64{1, 2}
		times = make([]float64, i)
		require.NoError(t, analysis.AddRow(scint))
		require.NoError(t, analysis.AddRow(photons))
	}
	assert.Equal(t, 6, w.Rows("hits"))
	assert.Equal(t, 3, w.Rows("photons"))
	assert.Zero(t, w.Rows("none"))

	assert.Error(t, w.AppendRows(RowBlock{Table: "none", Rows: 1}))

	h, err := NewH1("ch0_Edep", "", 10, 0, 10, MeV)
	require.NoError(t, err)
	h.Fill(3, 1)
	require.NoError(t, w.WriteHistogram(h))
	require.NoError(t, w.WriteRunInfo(RunInfo{RunNumber: 3, UUID: uuid.New(), Events: 3}))
	require.NoError(t, w.WriteRunInfo(RunInfo{RunID: 1, RunNumber: 3, UUID: uuid.New()}))

	require.NoError(t, w.Close())
	assert.FileExists(t, filename)
}
