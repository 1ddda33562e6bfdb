package scintsim

import (
	"io"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

type logLine struct {
	level   string
	module  string
	message string
}

type recordLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordLogger) add(level, message, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, module: module, message: message})
}

func (l *recordLogger) Info(message string, module string) { l.add("info", message, module) }
func (l *recordLogger) Warn(message string, module string) { l.add("warn", message, module) }
func (l *recordLogger) Error(message string)               { l.add("error", message, "") }

func (l *recordLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, line := range l.lines {
		if line.level == level {
			out = append(out, line.message)
		}
	}
	return out
}

// withConfig installs config and a recording logger for the duration of the test.
func withConfig(t *testing.T, config Configuration) *recordLogger {
	t.Helper()
	previous := GetConfiguration()
	SetConfiguration(config)
	log := &recordLogger{}
	SetLogger(log)
	t.Cleanup(func() {
		SetConfiguration(previous)
		SetLogger(nil)
	})
	return log
}

func electronStep(volume string, edep float64) Step {
	return Step{
		Track: Track{
			ParticleName: "e-",
			TrackID:      1,
			TotalEnergy:  10 * MeV,
			VolumeName:   volume,
		},
		PostStepPoint:      StepPoint{Position: r3.Vec{X: 1, Y: 2, Z: 3}, GlobalTime: 1.5 * Ns},
		TotalEnergyDeposit: edep,
		StepLength:         0.5 * Mm,
		FirstStepInVolume:  true,
	}
}

func photonStep(volume string, x, y, t float64) Step {
	return Step{
		Track: Track{
			ParticleName: "opticalphoton",
			TotalEnergy:  Wavelength(420 * Nm),
			VolumeName:   volume,
		},
		PostStepPoint: StepPoint{
			Position:    r3.Vec{X: x, Y: y},
			GlobalTime:  t,
			ProcessName: "OpAbsorption",
		},
		FirstStepInVolume: true,
	}
}

// fakeEngine records the photon lists it is handed.
type fakeEngine struct {
	sampling float64
	gate     float64
	pregate  float64
	calls    []PhotonList
	fail     error
}

func (e *fakeEngine) SetSampling(ns float64) { e.sampling = ns }
func (e *fakeEngine) Sampling() float64      { return e.sampling }
func (e *fakeEngine) SetGate(ns float64)     { e.gate = ns }
func (e *fakeEngine) SetPreGate(ns float64)  { e.pregate = ns }

func (e *fakeEngine) Generate(photons PhotonList) error {
	if e.fail != nil {
		return e.fail
	}
	e.calls = append(e.calls, append(PhotonList(nil), photons...))
	return nil
}

func (e *fakeEngine) Charge() float64 {
	return float64(len(e.calls[len(e.calls)-1]))
}

func (e *fakeEngine) Waveform() []float64 {
	return []float64{0, 1, 0.5}
}

// sliceSource replays a fixed list of events.
type sliceSource struct {
	mu     sync.Mutex
	events []EventData
	next   int
	err    error
}

func (s *sliceSource) Next() (EventData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.events) {
		if s.err != nil {
			return EventData{}, s.err
		}
		return EventData{}, io.EOF
	}
	e := s.events[s.next]
	s.next++
	return e, nil
}
