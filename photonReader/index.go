package main

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// StreamIndex records which event indices a photon stream holds, to spot
// repeated or missing blocks.
type StreamIndex struct {
	seen       *roaring.Bitmap
	duplicates *roaring.Bitmap
	negative   int
	photons    uint64
}

func NewStreamIndex() *StreamIndex {
	return &StreamIndex{
		seen:       roaring.New(),
		duplicates: roaring.New(),
	}
}

// Add registers a block. It reports false if the index was already seen.
func (s *StreamIndex) Add(eventIndex int32, nPhotons int) bool {
	s.photons += uint64(nPhotons)
	if eventIndex < 0 {
		s.negative++
		return true
	}
	if !s.seen.CheckedAdd(uint32(eventIndex)) {
		s.duplicates.Add(uint32(eventIndex))
		return false
	}
	return true
}

// Blocks is the number of distinct event indices.
func (s *StreamIndex) Blocks() uint64 { return s.seen.GetCardinality() }

func (s *StreamIndex) Photons() uint64 { return s.photons }

func (s *StreamIndex) Duplicates() []uint32 { return s.duplicates.ToArray() }

// Missing lists the indices between the first and last seen that never
// appeared.
func (s *StreamIndex) Missing() []uint32 {
	if s.seen.IsEmpty() {
		return nil
	}
	all := roaring.New()
	all.AddRange(uint64(s.seen.Minimum()), uint64(s.seen.Maximum())+1)
	all.AndNot(s.seen)
	return all.ToArray()
}

// Merge adds the indices of another stream, as when reading the per-worker
// files of one run.
func (s *StreamIndex) Merge(other *StreamIndex) {
	overlap := roaring.And(s.seen, other.seen)
	s.duplicates.Or(overlap)
	s.duplicates.Or(other.duplicates)
	s.seen.Or(other.seen)
	s.negative += other.negative
	s.photons += other.photons
}

func (s *StreamIndex) String() string {
	return fmt.Sprintf("%d events, %d photons, %d duplicated, %d missing",
		s.Blocks(), s.photons, s.duplicates.GetCardinality(), len(s.Missing()))
}
