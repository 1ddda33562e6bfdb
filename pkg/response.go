package scintsim

// Photon is one absorbed photon as handed to the SiPM response engine:
// position in mm, arrival time in ns, wavelength in nm.
type Photon struct {
	X          float64
	Y          float64
	Time       float64
	Wavelength float64
}

// PhotonList collects the photons of one event.
type PhotonList []Photon

func (l *PhotonList) AddPhoton(x, y, time, wavelength float64) {
	*l = append(*l, Photon{X: x, Y: y, Time: time, Wavelength: wavelength})
}

func (l *PhotonList) Clear() {
	*l = (*l)[:0]
}

// ResponseEngine turns a photon list into a SiPM charge and waveform. It is
// provided by an external simulation library.
type ResponseEngine interface {
	SetSampling(ns float64)
	Sampling() float64
	SetGate(ns float64)
	SetPreGate(ns float64)
	Generate(photons PhotonList) error
	Charge() float64
	Waveform() []float64
}
