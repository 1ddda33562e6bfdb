package scintsim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParticleRecord holds the scintillator hits of one event as parallel
// columns. Every column always has the same length.
type ParticleRecord struct {
	DetectorID  []int32
	ParentID    []int32
	TrackID     []int32
	Time        []float64 // ns
	Edep        []float64 // MeV
	Energy      []float64 // MeV
	PosX        []float64 // mm
	PosY        []float64 // mm
	PosZ        []float64 // mm
	Theta       []float64 // rad
	Phi         []float64 // rad
	TrackLength []float64 // mm
}

// Reserve grows the capacity of every column to at least n.
func (r *ParticleRecord) Reserve(n int) {
	reserve(&r.DetectorID, n)
	reserve(&r.ParentID, n)
	reserve(&r.TrackID, n)
	reserve(&r.Time, n)
	reserve(&r.Edep, n)
	reserve(&r.Energy, n)
	reserve(&r.PosX, n)
	reserve(&r.PosY, n)
	reserve(&r.PosZ, n)
	reserve(&r.Theta, n)
	reserve(&r.Phi, n)
	reserve(&r.TrackLength, n)
}

// ClearVecs empties every column and keeps its capacity.
func (r *ParticleRecord) ClearVecs() {
	r.DetectorID = r.DetectorID[:0]
	r.ParentID = r.ParentID[:0]
	r.TrackID = r.TrackID[:0]
	r.Time = r.Time[:0]
	r.Edep = r.Edep[:0]
	r.Energy = r.Energy[:0]
	r.PosX = r.PosX[:0]
	r.PosY = r.PosY[:0]
	r.PosZ = r.PosZ[:0]
	r.Theta = r.Theta[:0]
	r.Phi = r.Phi[:0]
	r.TrackLength = r.TrackLength[:0]
}

func (r *ParticleRecord) Len() int {
	return len(r.DetectorID)
}

func (r *ParticleRecord) lengths() map[string]int {
	return map[string]int{
		"detector_id":  len(r.DetectorID),
		"parent_id":    len(r.ParentID),
		"track_id":     len(r.TrackID),
		"time":         len(r.Time),
		"edep":         len(r.Edep),
		"energy":       len(r.Energy),
		"pos_x":        len(r.PosX),
		"pos_y":        len(r.PosY),
		"pos_z":        len(r.PosZ),
		"theta":        len(r.Theta),
		"phi":          len(r.Phi),
		"track_length": len(r.TrackLength),
	}
}

// Check returns an ErrRecordLength if the columns disagree in length.
func (r *ParticleRecord) Check() error {
	return checkLengths("ParticleRecord", r.Len(), r.lengths())
}

// Append adds one hit, converting to ns, MeV and mm.
func (r *ParticleRecord) Append(hit *ScintillatorHit) {
	theta, phi := angles(hit.Pos)
	r.DetectorID = append(r.DetectorID, hit.DetectorID)
	r.ParentID = append(r.ParentID, hit.ParentID)
	r.TrackID = append(r.TrackID, hit.TrackID)
	r.Time = append(r.Time, hit.Time/Ns)
	r.Edep = append(r.Edep, hit.Edep/MeV)
	r.Energy = append(r.Energy, hit.Energy/MeV)
	r.PosX = append(r.PosX, hit.Pos.X/Mm)
	r.PosY = append(r.PosY, hit.Pos.Y/Mm)
	r.PosZ = append(r.PosZ, hit.Pos.Z/Mm)
	r.Theta = append(r.Theta, theta)
	r.Phi = append(r.Phi, phi)
	r.TrackLength = append(r.TrackLength, hit.TrackLength/Mm)
}

// Populate appends every hit of hc in collection order. A nil collection
// adds nothing.
func (r *ParticleRecord) Populate(hc *HitsCollection[ScintillatorHit]) {
	if hc == nil {
		return
	}
	hits := hc.Hits()
	r.Reserve(r.Len() + len(hits))
	for _, hit := range hits {
		r.Append(hit)
	}
}

// PhotonRecord holds the SiPM photons of one event.
type PhotonRecord struct {
	SiPMID     []int32
	PosX       []float64 // mm
	PosY       []float64 // mm
	PosZ       []float64 // mm
	Time       []float64 // ns
	Wavelength []float64 // nm
	NPhotons   int32
}

func (r *PhotonRecord) Reserve(n int) {
	reserve(&r.SiPMID, n)
	reserve(&r.PosX, n)
	reserve(&r.PosY, n)
	reserve(&r.PosZ, n)
	reserve(&r.Time, n)
	reserve(&r.Wavelength, n)
}

// ClearVecs empties every column, keeps capacity and resets the photon count.
func (r *PhotonRecord) ClearVecs() {
	r.SiPMID = r.SiPMID[:0]
	r.PosX = r.PosX[:0]
	r.PosY = r.PosY[:0]
	r.PosZ = r.PosZ[:0]
	r.Time = r.Time[:0]
	r.Wavelength = r.Wavelength[:0]
	r.NPhotons = 0
}

func (r *PhotonRecord) Len() int {
	return len(r.SiPMID)
}

func (r *PhotonRecord) Check() error {
	return checkLengths("PhotonRecord", r.Len(), map[string]int{
		"sipm_id":    len(r.SiPMID),
		"pos_x":      len(r.PosX),
		"pos_y":      len(r.PosY),
		"pos_z":      len(r.PosZ),
		"time":       len(r.Time),
		"wavelength": len(r.Wavelength),
	})
}

func (r *PhotonRecord) Append(sipm int32, hit *PhotonHit) {
	r.SiPMID = append(r.SiPMID, sipm)
	r.PosX = append(r.PosX, hit.Pos.X/Mm)
	r.PosY = append(r.PosY, hit.Pos.Y/Mm)
	r.PosZ = append(r.PosZ, hit.Pos.Z/Mm)
	r.Time = append(r.Time, hit.Time/Ns)
	r.Wavelength = append(r.Wavelength, hit.Wavelength/Nm)
	r.NPhotons = int32(r.Len())
}

// Populate appends every photon of hc, tagging them with the SiPM id.
func (r *PhotonRecord) Populate(sipm int32, hc *HitsCollection[PhotonHit]) {
	if hc == nil {
		return
	}
	hits := hc.Hits()
	r.Reserve(r.Len() + len(hits))
	for _, hit := range hits {
		r.Append(sipm, hit)
	}
}

// angles returns the polar and azimuthal angle of p. Both are zero at the origin.
func angles(p r3.Vec) (theta, phi float64) {
	perp := math.Hypot(p.X, p.Y)
	if perp != 0 || p.Z != 0 {
		theta = math.Atan2(perp, p.Z)
	}
	if p.X != 0 || p.Y != 0 {
		phi = math.Atan2(p.Y, p.X)
	}
	return theta, phi
}

func reserve[T any](s *[]T, n int) {
	if cap(*s) >= n {
		return
	}
	grown := make([]T, len(*s), n)
	copy(grown, *s)
	*s = grown
}

func checkLengths(table string, expected int, lengths map[string]int) error {
	for column, got := range lengths {
		if got != expected {
			return &ErrRecordLength{TableName: table, Column: column, Expected: expected, Got: got}
		}
	}
	return nil
}
