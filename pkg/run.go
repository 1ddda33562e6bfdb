package scintsim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/spatial/r3"
)

// RunInfo describes one run. RunID counts the runs of a RunManager,
// RunNumber is the configured experiment run number.
type RunInfo struct {
	RunID       int
	RunNumber   int
	UUID        uuid.UUID
	Events      int
	GunPosition r3.Vec
}

// RunAction is called at the boundaries of a run. At the end it stores the
// merged histograms and the run information.
type RunAction struct {
	analysis *AnalysisManager
	writer   TableWriter
}

func NewRunAction(analysis *AnalysisManager, writer TableWriter) *RunAction {
	return &RunAction{analysis: analysis, writer: writer}
}

func (a *RunAction) OnRunBegin(info RunInfo) {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Starting run %d (%s)", info.RunID, info.UUID), "RunAction")
	}
}

func (a *RunAction) OnRunEnd(info RunInfo) error {
	logger.Info(fmt.Sprintf("INFO: run : %d", info.RunID), "RunAction")
	if a.writer == nil {
		return nil
	}
	var errs []error
	if a.analysis != nil && configuration.WriteHistograms {
		for _, h := range a.analysis.Histograms() {
			if err := a.writer.WriteHistogram(h); err != nil {
				errs = append(errs, fmt.Errorf("writing histogram %q: %w", h.Name, err))
			}
		}
	}
	if err := a.writer.WriteRunInfo(info); err != nil {
		errs = append(errs, fmt.Errorf("writing run info: %w", err))
	}
	return errors.Join(errs...)
}

// RunManager drives runs: it builds one Worker per configured thread, feeds
// them the events of a source and merges their results.
type RunManager struct {
	Geometry  Geometry
	Registry  *Registry
	Volumes   *VolumeMap
	Writer    TableWriter
	NewEngine func() (ResponseEngine, error)

	runs     int
	analysis *AnalysisManager
	workers  []*Worker
}

// NewRunManager uses the geometry's channel ids when volumes is nil.
func NewRunManager(geometry Geometry, volumes *VolumeMap, writer TableWriter) *RunManager {
	if volumes == nil {
		volumes = geometry.VolumeMap()
	}
	return &RunManager{
		Geometry: geometry,
		Registry: NewRegistry(),
		Volumes:  volumes,
		Writer:   writer,
	}
}

// Analysis returns the merged analysis of the last run.
func (m *RunManager) Analysis() *AnalysisManager { return m.analysis }

// Workers returns the workers of the last run.
func (m *RunManager) Workers() []*Worker { return m.workers }

func (m *RunManager) newWorker(id WorkerID, nWorkers int) (*Worker, error) {
	detectors, err := BuildDetectors(m.Geometry, m.Registry, m.Volumes, DetectorOptions{
		Worker:     id,
		NumWorkers: nWorkers,
		NewEngine:  m.NewEngine,
	})
	if err != nil {
		return nil, err
	}

	var writer TableWriter
	if configuration.WriteData && configuration.WriteTables {
		writer = m.Writer
	}
	analysis := NewAnalysisManager(writer)
	action, err := NewEventAction(m.Registry, analysis, NewEventActionConfig(detectors.Detectors()))
	if err != nil {
		return nil, errors.Join(err, detectors.Close())
	}
	return &Worker{
		ID:        id,
		Detectors: detectors,
		Action:    action,
		Analysis:  analysis,
	}, nil
}

// BeamOn processes every event of source. Events are spread over the
// configured number of workers; each event runs entirely on one worker.
func (m *RunManager) BeamOn(ctx context.Context, source EventSource) (RunInfo, error) {
	nWorkers := configuration.NumWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}

	info := RunInfo{
		RunID:       m.runs,
		RunNumber:   configuration.RunNumber,
		UUID:        uuid.New(),
		GunPosition: m.Geometry.GunPosition(),
	}
	m.runs++

	m.workers = m.workers[:0]
	var errs []error
	for i := 0; i < nWorkers; i++ {
		w, err := m.newWorker(WorkerID(i), nWorkers)
		if err != nil {
			errs = append(errs, fmt.Errorf("building worker %d: %w", i, err))
			break
		}
		m.workers = append(m.workers, w)
	}
	if len(errs) > 0 {
		return info, errors.Join(append(errs, m.closeWorkers())...)
	}

	m.analysis = m.workers[0].Analysis
	var writer TableWriter
	if configuration.WriteData {
		writer = m.Writer
	}
	action := NewRunAction(m.analysis, writer)
	action.OnRunBegin(info)

	jobs := make(chan EventData, nWorkers)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		return sendEventsToWorkers(ctx, source, jobs)
	})
	for _, w := range m.workers {
		p.Go(func(ctx context.Context) error {
			return w.run(ctx, jobs)
		})
	}
	runErr := p.Wait()

	for _, w := range m.workers {
		info.Events += w.Events
		if w != m.workers[0] {
			if err := m.analysis.Merge(w.Analysis); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := m.closeWorkers(); err != nil {
		errs = append(errs, err)
	}
	if runErr != nil {
		return info, errors.Join(append([]error{runErr}, errs...)...)
	}

	if err := action.OnRunEnd(info); err != nil {
		errs = append(errs, err)
	}
	return info, errors.Join(errs...)
}

func (m *RunManager) closeWorkers() error {
	var errs []error
	for _, w := range m.workers {
		if err := w.Detectors.Close(); err != nil {
			errs = append(errs, err)
		}
		ScintillatorHitAllocator.Destroy(w.ID)
		PhotonHitAllocator.Destroy(w.ID)
	}
	return errors.Join(errs...)
}
