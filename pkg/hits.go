package scintsim

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// ScintillatorHit is one accepted charged-particle step inside a scintillator.
type ScintillatorHit struct {
	Edep         float64 // energy deposit
	Energy       float64 // particle total energy
	Pos          r3.Vec
	Time         float64 // global time
	ParentID     int32
	TrackID      int32
	TrackLength  float64
	LocalTime    float64
	ParticleName string
	VolumeName   string
	DetectorID   int32
}

// PhotonHit is one optical photon absorbed in a SiPM.
type PhotonHit struct {
	Pos        r3.Vec
	Time       float64
	Wavelength float64
	VolumeName string
}

// Collection is anything stored in the per-event collection container.
type Collection interface {
	DetectorName() string
	CollectionName() string
	Entries() int
	release()
}

// LogicalName joins a detector and collection name the way the registry keys them.
func LogicalName(detector, collection string) string {
	return detector + "/" + collection
}

// HitsCollection is the ordered set of hits one detector produced in one event.
type HitsCollection[T any] struct {
	detector   string
	collection string
	hits       []*T
	free       func(*T)
}

// NewHitsCollection creates an empty collection. free, if not nil, receives
// every hit when the collection is released at the end of the event.
func NewHitsCollection[T any](detector, collection string, free func(*T)) *HitsCollection[T] {
	return &HitsCollection[T]{
		detector:   detector,
		collection: collection,
		free:       free,
	}
}

func (hc *HitsCollection[T]) DetectorName() string   { return hc.detector }
func (hc *HitsCollection[T]) CollectionName() string { return hc.collection }
func (hc *HitsCollection[T]) Name() string           { return LogicalName(hc.detector, hc.collection) }
func (hc *HitsCollection[T]) Entries() int           { return len(hc.hits) }

// Insert appends a hit and returns the new number of entries.
func (hc *HitsCollection[T]) Insert(hit *T) int {
	hc.hits = append(hc.hits, hit)
	return len(hc.hits)
}

// At returns the i-th hit in insertion order.
func (hc *HitsCollection[T]) At(i int) *T {
	return hc.hits[i]
}

// Hits exposes the hits in insertion order. The slice must not be modified.
func (hc *HitsCollection[T]) Hits() []*T {
	return hc.hits
}

func (hc *HitsCollection[T]) release() {
	if hc.free != nil {
		for _, h := range hc.hits {
			hc.free(h)
		}
	}
	hc.hits = nil
}

// HitsMap holds one summed quantity per index (copy number) for one event.
type HitsMap struct {
	detector   string
	collection string
	values     map[int]float64
}

func NewHitsMap(detector, collection string) *HitsMap {
	return &HitsMap{
		detector:   detector,
		collection: collection,
		values:     make(map[int]float64),
	}
}

func (m *HitsMap) DetectorName() string   { return m.detector }
func (m *HitsMap) CollectionName() string { return m.collection }
func (m *HitsMap) Name() string           { return LogicalName(m.detector, m.collection) }
func (m *HitsMap) Entries() int           { return len(m.values) }

// Add accumulates value on index.
func (m *HitsMap) Add(index int, value float64) {
	m.values[index] += value
}

// Get returns the value stored for index.
func (m *HitsMap) Get(index int) (float64, bool) {
	v, ok := m.values[index]
	return v, ok
}

// Sum adds every stored value in index order. A nil map sums to zero.
func (m *HitsMap) Sum() float64 {
	if m == nil || len(m.values) == 0 {
		return 0
	}
	keys := make([]int, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = m.values[k]
	}
	return floats.Sum(values)
}

func (m *HitsMap) release() {
	m.values = nil
}
