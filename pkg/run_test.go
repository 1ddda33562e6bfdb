package scintsim

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func runConfig(workers int) Configuration {
	config := DefaultConfiguration()
	config.NumWorkers = workers
	config.PrintModulo = 0
	config.WriteGossip = false
	config.RunNumber = 11
	return config
}

func testEvents(n int) []EventData {
	events := make([]EventData, n)
	for i := range events {
		events[i] = EventData{ID: i, Steps: []Step{
			electronStep("scintPV0", 1*MeV),
			electronStep("scintPV2", 2*MeV),
			photonStep("sipmPV", 1, 1, 1),
		}}
	}
	return events
}

func TestBeamOnWorkers(t *testing.T) {
	withConfig(t, runConfig(3))
	writer := NewMemoryWriter()
	manager := NewRunManager(DefaultGeometry(), nil, writer)

	info, err := manager.BeamOn(context.Background(), &sliceSource{events: testEvents(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, info.Events)
	assert.Equal(t, 0, info.RunID)
	assert.NotEqual(t, uuid.Nil, info.UUID)
	assert.Equal(t, r3.Vec{Z: -300}, info.GunPosition)

	require.Len(t, manager.Workers(), 3)
	total := 0
	for _, w := range manager.Workers() {
		total += w.Events
	}
	assert.Equal(t, 10, total)

	rows := writer.Rows(ScintillatorTable)
	assert.Len(t, rows, 20)
	var ids []int
	for _, row := range writer.Rows(PhotonTable) {
		ids = append(ids, int(row["event_id"].(int32)))
	}
	sort.Ints(ids)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids)

	h := writer.Histogram("Scintillator2_Edep")
	require.NotNil(t, h)
	assert.Equal(t, 10, h.Entries())
	assert.Equal(t, 10.0, h.BinContent(h.FindBin(2*MeV)))
	assert.Equal(t, 10, manager.Analysis().GetH1(0).Entries())

	runs := writer.RunInfo()
	require.Len(t, runs, 1)
	assert.Equal(t, 11, runs[0].RunNumber)
	assert.Equal(t, info.UUID, runs[0].UUID)

	// Pools are dropped at the end of the run.
	assert.Panics(t, func() { ScintillatorHitAllocator.Release(0, &ScintillatorHit{}) })
}

func TestBeamOnSkipAndLimit(t *testing.T) {
	config := runConfig(1)
	config.Skip = 2
	config.MaxEvents = 3
	withConfig(t, config)
	writer := NewMemoryWriter()
	manager := NewRunManager(DefaultGeometry(), nil, writer)

	info, err := manager.BeamOn(context.Background(), &sliceSource{events: testEvents(10)})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Events)

	var ids []int32
	for _, row := range writer.Rows(PhotonTable) {
		ids = append(ids, row["event_id"].(int32))
	}
	assert.Equal(t, []int32{2, 3, 4}, ids)

	// A second run gets the next run id.
	info, err = manager.BeamOn(context.Background(), &sliceSource{events: testEvents(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, info.RunID)
	assert.Len(t, writer.RunInfo(), 2)
}

func TestBeamOnSourceError(t *testing.T) {
	withConfig(t, runConfig(2))
	writer := NewMemoryWriter()
	manager := NewRunManager(DefaultGeometry(), nil, writer)

	readErr := errors.New("corrupt trace")
	_, err := manager.BeamOn(context.Background(), &sliceSource{events: testEvents(3), err: readErr})
	assert.ErrorIs(t, err, readErr)
	assert.Empty(t, writer.RunInfo())
}

func TestBeamOnCancelled(t *testing.T) {
	withConfig(t, runConfig(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := NewRunManager(DefaultGeometry(), nil, NewMemoryWriter())
	_, err := manager.BeamOn(ctx, &sliceSource{events: testEvents(100)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBeamOnWithoutOutput(t *testing.T) {
	config := runConfig(2)
	config.WriteData = false
	withConfig(t, config)
	writer := NewMemoryWriter()
	manager := NewRunManager(DefaultGeometry(), nil, writer)

	info, err := manager.BeamOn(context.Background(), &sliceSource{events: testEvents(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, info.Events)
	assert.Empty(t, writer.Rows(ScintillatorTable))
	assert.Empty(t, writer.RunInfo())
	assert.Equal(t, 4, manager.Analysis().GetH1(0).Entries())
}
