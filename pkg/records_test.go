package scintsim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParticleRecordPopulate(t *testing.T) {
	hc := NewHitsCollection[ScintillatorHit]("scintillators", ScintillatorCollection, nil)
	hc.Insert(&ScintillatorHit{DetectorID: 0, TrackID: 1, Edep: 2 * MeV, Energy: 5 * MeV,
		Pos: r3.Vec{X: 1, Y: 0, Z: 0}, Time: 3 * Ns, TrackLength: 7 * Mm})
	hc.Insert(&ScintillatorHit{DetectorID: 2, TrackID: 4, ParentID: 1, Edep: 3.5 * MeV,
		Pos: r3.Vec{X: 0, Y: 0, Z: 10}})

	var r ParticleRecord
	r.Populate(hc)
	r.Populate(nil)

	require.NoError(t, r.Check())
	require.Equal(t, 2, r.Len())
	assert.Equal(t, []int32{0, 2}, r.DetectorID)
	assert.Equal(t, []int32{1, 4}, r.TrackID)
	assert.Equal(t, []int32{0, 1}, r.ParentID)
	assert.Equal(t, []float64{2, 3.5}, r.Edep)
	assert.Equal(t, []float64{5, 0}, r.Energy)
	assert.Equal(t, []float64{3, 0}, r.Time)
	assert.Equal(t, []float64{7, 0}, r.TrackLength)
	assert.InDelta(t, math.Pi/2, r.Theta[0], 1e-12)
	assert.Zero(t, r.Phi[0])
	assert.Zero(t, r.Theta[1])
}

func TestParticleRecordClearKeepsCapacity(t *testing.T) {
	var r ParticleRecord
	r.Reserve(16)
	r.Append(&ScintillatorHit{Edep: 1})
	r.ClearVecs()
	r.ClearVecs()

	assert.Equal(t, 0, r.Len())
	assert.NoError(t, r.Check())
	assert.Equal(t, 16, cap(r.Edep))
	assert.Equal(t, 16, cap(r.TrackLength))
}

func TestParticleRecordCheck(t *testing.T) {
	var r ParticleRecord
	r.Append(&ScintillatorHit{})
	r.Phi = append(r.Phi, 0)

	var lengthErr *ErrRecordLength
	require.True(t, errors.As(r.Check(), &lengthErr))
	assert.Equal(t, "phi", lengthErr.Column)
	assert.Equal(t, 1, lengthErr.Expected)
	assert.Equal(t, 2, lengthErr.Got)
}

func TestPhotonRecordPopulate(t *testing.T) {
	hc := NewHitsCollection[PhotonHit]("sipm", SiPMCollection, nil)
	hc.Insert(&PhotonHit{Pos: r3.Vec{X: 1, Y: 2, Z: 3}, Time: 4 * Ns, Wavelength: 420 * Nm})
	hc.Insert(&PhotonHit{Pos: r3.Vec{X: 5, Y: 6, Z: 7}, Time: 8 * Ns, Wavelength: 450 * Nm})

	var r PhotonRecord
	r.Populate(3, hc)
	require.NoError(t, r.Check())
	assert.Equal(t, int32(2), r.NPhotons)
	assert.Equal(t, []int32{3, 3}, r.SiPMID)
	assert.Equal(t, []float64{1, 5}, r.PosX)
	assert.Equal(t, []float64{3, 7}, r.PosZ)
	assert.Equal(t, []float64{4, 8}, r.Time)
	assert.InDeltaSlice(t, []float64{420, 450}, r.Wavelength, 1e-9)

	r.ClearVecs()
	assert.Zero(t, r.NPhotons)
	assert.Zero(t, r.Len())
}

func TestAngles(t *testing.T) {
	tests := []struct {
		name       string
		p          r3.Vec
		theta, phi float64
	}{
		{"origin", r3.Vec{}, 0, 0},
		{"z axis", r3.Vec{Z: 1}, 0, 0},
		{"minus z", r3.Vec{Z: -2}, math.Pi, 0},
		{"y axis", r3.Vec{Y: 3}, math.Pi / 2, math.Pi / 2},
		{"diagonal", r3.Vec{X: 1, Y: 1, Z: math.Sqrt2}, math.Pi / 4, math.Pi / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theta, phi := angles(tt.p)
			assert.InDelta(t, tt.theta, theta, 1e-12)
			assert.InDelta(t, tt.phi, phi, 1e-12)
		})
	}
}
