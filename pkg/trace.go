package scintsim

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

type tracePoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	GlobalTime float64 `json:"global_time"`
	LocalTime  float64 `json:"local_time"`
	Process    string  `json:"process"`
}

// TraceStep is one line of a step trace, in mm, ns and MeV.
type TraceStep struct {
	Event       int        `json:"event"`
	Volume      string     `json:"volume"`
	Particle    string     `json:"particle"`
	TrackID     int32      `json:"track_id"`
	ParentID    int32      `json:"parent_id"`
	Edep        float64    `json:"edep"`
	StepLength  float64    `json:"step_length"`
	TrackLength float64    `json:"track_length"`
	TotalEnergy float64    `json:"total_energy"`
	FirstStep   bool       `json:"first_step"`
	Post        tracePoint `json:"post"`
	Secondaries []string   `json:"secondaries,omitempty"`
}

func (s TraceStep) Step() Step {
	return Step{
		Track: Track{
			ParticleName: s.Particle,
			TrackID:      s.TrackID,
			ParentID:     s.ParentID,
			TotalEnergy:  s.TotalEnergy * MeV,
			TrackLength:  s.TrackLength * Mm,
			VolumeName:   s.Volume,
		},
		PostStepPoint: StepPoint{
			Position:    r3.Scale(Mm, r3.Vec{X: s.Post.X, Y: s.Post.Y, Z: s.Post.Z}),
			GlobalTime:  s.Post.GlobalTime * Ns,
			LocalTime:   s.Post.LocalTime * Ns,
			ProcessName: s.Post.Process,
		},
		TotalEnergyDeposit: s.Edep * MeV,
		StepLength:         s.StepLength * Mm,
		FirstStepInVolume:  s.FirstStep,
		Secondaries:        s.Secondaries,
	}
}

// TraceReader replays a step trace written by the transport engine, one JSON
// object per line. Consecutive lines with the same event number form an event.
type TraceReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	pending *TraceStep
	line    int
	done    bool
}

func NewTraceReader(r io.Reader) *TraceReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &TraceReader{scanner: scanner}
}

func OpenTrace(filename string) (*TraceReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	t := NewTraceReader(f)
	t.closer = f
	return t, nil
}

func (t *TraceReader) readStep() (*TraceStep, error) {
	for t.scanner.Scan() {
		t.line++
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		step := &TraceStep{}
		if err := json.Unmarshal(line, step); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", t.line, err)
		}
		return step, nil
	}
	if err := t.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Next returns the steps of the next event.
func (t *TraceReader) Next() (EventData, error) {
	if t.done {
		return EventData{}, io.EOF
	}
	first := t.pending
	t.pending = nil
	if first == nil {
		var err error
		if first, err = t.readStep(); err != nil {
			if errors.Is(err, io.EOF) {
				t.done = true
			}
			return EventData{}, err
		}
	}

	data := EventData{ID: first.Event, Steps: []Step{first.Step()}}
	for {
		step, err := t.readStep()
		if errors.Is(err, io.EOF) {
			t.done = true
			return data, nil
		}
		if err != nil {
			return EventData{}, err
		}
		if step.Event != data.ID {
			t.pending = step
			return data, nil
		}
		data.Steps = append(data.Steps, step.Step())
	}
}

func (t *TraceReader) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}
