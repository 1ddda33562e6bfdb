package scintsim

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Track is the state of the stepping particle, as reported by the engine.
type Track struct {
	ParticleName string
	TrackID      int32
	ParentID     int32
	TotalEnergy  float64
	TrackLength  float64 // length before the current step
	VolumeName   string  // physical volume the step happens in
}

type StepPoint struct {
	Position    r3.Vec
	GlobalTime  float64
	LocalTime   float64
	ProcessName string // process that limited the step
}

// Step is one simulation step delivered by the engine to the detectors bound
// to Track.VolumeName.
type Step struct {
	Track              Track
	PostStepPoint      StepPoint
	TotalEnergyDeposit float64
	StepLength         float64
	FirstStepInVolume  bool
	Secondaries        []string // particle names created in this step
}

// HitsCollections holds the collections of one event, indexed by registry id.
type HitsCollections struct {
	slots []Collection
}

func NewHitsCollections() *HitsCollections {
	return &HitsCollections{}
}

// Add stores c under id, replacing whatever was there.
func (h *HitsCollections) Add(id int, c Collection) {
	if id < 0 {
		return
	}
	for len(h.slots) <= id {
		h.slots = append(h.slots, nil)
	}
	h.slots[id] = c
}

// Get returns the collection stored under id, or nil.
func (h *HitsCollections) Get(id int) Collection {
	if id < 0 || id >= len(h.slots) {
		return nil
	}
	return h.slots[id]
}

// Len counts the stored collections.
func (h *HitsCollections) Len() int {
	n := 0
	for _, c := range h.slots {
		if c != nil {
			n++
		}
	}
	return n
}

// Release returns every hit to its allocator and empties the container.
func (h *HitsCollections) Release() {
	for i, c := range h.slots {
		if c != nil {
			c.release()
		}
		h.slots[i] = nil
	}
	h.slots = h.slots[:0]
}

// Event is the context passed to every per-event callback.
type Event struct {
	ID     int
	Worker WorkerID
	HCE    *HitsCollections
}

func NewEvent(id int, worker WorkerID) *Event {
	return &Event{
		ID:     id,
		Worker: worker,
		HCE:    NewHitsCollections(),
	}
}

// GetScintillatorHits returns the scintillator collection stored under id.
func GetScintillatorHits(evt *Event, id int) *HitsCollection[ScintillatorHit] {
	hc, _ := evt.HCE.Get(id).(*HitsCollection[ScintillatorHit])
	return hc
}

// GetPhotonHits returns the photon collection stored under id.
func GetPhotonHits(evt *Event, id int) *HitsCollection[PhotonHit] {
	hc, _ := evt.HCE.Get(id).(*HitsCollection[PhotonHit])
	return hc
}

// GetHitsMap returns the summed-quantity map stored under id.
func GetHitsMap(evt *Event, id int) *HitsMap {
	m, _ := evt.HCE.Get(id).(*HitsMap)
	return m
}
