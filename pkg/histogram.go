package scintsim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// H1 is a fixed-binning one-dimensional histogram with underflow and
// overflow bins.
type H1 struct {
	Name     string
	Title    string
	Unit     float64 // values are divided by Unit before filling
	edges    []float64
	contents []float64 // nbins + 2: underflow, bins, overflow
	entries  int
	sumW     float64
	sumWX    float64
	sumWX2   float64
}

// NewH1 creates a histogram of nbins equal bins over [low, high), in units
// of unit (1 when unit is 0).
func NewH1(name, title string, nbins int, low, high, unit float64) (*H1, error) {
	if nbins <= 0 {
		return nil, fmt.Errorf("histogram %q: number of bins must be positive, got %d", name, nbins)
	}
	if !(high > low) {
		return nil, fmt.Errorf("histogram %q: empty range [%g, %g]", name, low, high)
	}
	if unit == 0 {
		unit = 1
	}
	return &H1{
		Name:     name,
		Title:    title,
		Unit:     unit,
		edges:    floats.Span(make([]float64, nbins+1), low/unit, high/unit),
		contents: make([]float64, nbins+2),
	}, nil
}

// Fill adds value with weight w.
func (h *H1) Fill(value, w float64) {
	x := value / h.Unit
	h.contents[h.bin(x)] += w
	h.entries++
	h.sumW += w
	h.sumWX += w * x
	h.sumWX2 += w * x * x
}

// bin returns the index in contents, 0 being the underflow.
func (h *H1) bin(x float64) int {
	n := len(h.edges) - 1
	switch {
	case math.IsNaN(x) || x < h.edges[0]:
		return 0
	case x >= h.edges[n]:
		return n + 1
	}
	// floats.Within fails only on the last edge, already handled above.
	if i := floats.Within(h.edges, x); i >= 0 {
		return i + 1
	}
	return sort.SearchFloat64s(h.edges, x)
}

func (h *H1) NBins() int        { return len(h.edges) - 1 }
func (h *H1) Entries() int      { return h.entries }
func (h *H1) SumW() float64     { return h.sumW }
func (h *H1) Low() float64      { return h.edges[0] }
func (h *H1) High() float64     { return h.edges[len(h.edges)-1] }
func (h *H1) Edges() []float64 { return h.edges }

// BinContent returns the content of bin i, 0 <= i < NBins.
func (h *H1) BinContent(i int) float64 { return h.contents[i+1] }

func (h *H1) Underflow() float64 { return h.contents[0] }
func (h *H1) Overflow() float64  { return h.contents[len(h.contents)-1] }

// Contents returns underflow, the bins and overflow, in that order.
func (h *H1) Contents() []float64 { return h.contents }

// FindBin returns the bin of value, -1 for underflow and NBins for overflow.
func (h *H1) FindBin(value float64) int {
	return h.bin(value/h.Unit) - 1
}

func (h *H1) Mean() float64 {
	if h.sumW == 0 {
		return 0
	}
	return h.sumWX / h.sumW
}

func (h *H1) RMS() float64 {
	if h.sumW == 0 {
		return 0
	}
	mean := h.Mean()
	v := h.sumWX2/h.sumW - mean*mean
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// Merge adds the contents of other, which must have the same binning.
func (h *H1) Merge(other *H1) error {
	if !floats.Equal(h.edges, other.edges) {
		return fmt.Errorf("cannot merge histogram %q into %q: different binning", other.Name, h.Name)
	}
	floats.Add(h.contents, other.contents)
	h.entries += other.entries
	h.sumW += other.sumW
	h.sumWX += other.sumWX
	h.sumWX2 += other.sumWX2
	return nil
}

// Reset clears the contents and keeps the binning.
func (h *H1) Reset() {
	for i := range h.contents {
		h.contents[i] = 0
	}
	h.entries = 0
	h.sumW, h.sumWX, h.sumWX2 = 0, 0, 0
}
