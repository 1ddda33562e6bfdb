package scintsim

import (
	"fmt"
	"math"
)

// Engine-native system of units. Lengths in mm, times in ns, energies in MeV.
const (
	Millimeter = 1.0
	Mm         = Millimeter
	Centimeter = 10 * Millimeter
	Cm         = Centimeter
	Meter      = 1000 * Millimeter
	Nanometer  = 1e-6 * Millimeter
	Nm         = Nanometer

	Nanosecond = 1.0
	Ns         = Nanosecond
	Second     = 1e9 * Nanosecond

	MegaElectronVolt = 1.0
	MeV              = MegaElectronVolt
	ElectronVolt     = 1e-6 * MegaElectronVolt
	EV               = ElectronVolt
	KeV              = 1e-3 * MegaElectronVolt
	GeV              = 1e3 * MegaElectronVolt
	TeV              = 1e6 * MegaElectronVolt
)

const (
	HPlanck = 4.13566733e-15 * ElectronVolt * Second
	CLight  = 299792458 * Meter / Second
)

// Wavelength returns h·c/E for a photon of total energy e.
func Wavelength(e float64) float64 {
	if e <= 0 {
		return 0
	}
	return HPlanck * CLight / e
}

type energyUnit struct {
	symbol string
	value  float64
}

var energyUnits = []energyUnit{
	{"TeV", TeV},
	{"GeV", GeV},
	{"MeV", MeV},
	{"keV", KeV},
	{"eV", EV},
}

// BestEnergy formats an energy with the largest unit that keeps the value >= 1.
func BestEnergy(e float64) string {
	if e == 0 {
		return fmt.Sprintf("%7g eV", 0.0)
	}
	abs := math.Abs(e)
	for _, u := range energyUnits {
		if abs >= u.value {
			return fmt.Sprintf("%7g %s", e/u.value, u.symbol)
		}
	}
	last := energyUnits[len(energyUnits)-1]
	return fmt.Sprintf("%7g %s", e/last.value, last.symbol)
}
