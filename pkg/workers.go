package scintsim

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// EventData is what the engine delivers for one event: its steps, in the
// order they were simulated.
type EventData struct {
	ID    int
	Steps []Step
}

// EventSource yields events until it returns io.EOF.
type EventSource interface {
	Next() (EventData, error)
}

// Worker processes events one after the other. Everything it owns (detectors,
// open collections, records and histograms) is only touched by its goroutine.
type Worker struct {
	ID        WorkerID
	Detectors *DetectorManager
	Action    *EventAction
	Analysis  *AnalysisManager
	Events    int
	Hits      int
}

// ProcessEvent runs the full lifecycle of one event.
func (w *Worker) ProcessEvent(data EventData) error {
	evt := NewEvent(data.ID, w.ID)
	defer evt.HCE.Release()

	if err := w.Detectors.PrepareNewEvent(evt); err != nil {
		return fmt.Errorf("event %d: %w", data.ID, err)
	}
	if err := w.Action.OnEventBegin(evt); err != nil {
		return fmt.Errorf("event %d: %w", data.ID, err)
	}
	for i := range data.Steps {
		if w.Detectors.ProcessStep(&data.Steps[i]) {
			w.Hits++
		}
	}
	if err := w.Detectors.TerminateEvent(evt); err != nil {
		return fmt.Errorf("event %d: %w", data.ID, err)
	}
	if err := w.Action.OnEventEnd(evt); err != nil {
		return fmt.Errorf("event %d: %w", data.ID, err)
	}
	w.Events++
	return nil
}

func (w *Worker) run(ctx context.Context, jobs <-chan EventData) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-jobs:
			if !ok {
				return nil
			}
			if configuration.Verbosity > 2 {
				logger.Info(fmt.Sprintf("Worker %d processing event %d", w.ID, data.ID), "worker")
			}
			if err := w.ProcessEvent(data); err != nil {
				return err
			}
		}
	}
}

// sendEventsToWorkers reads the source, skipping and limiting events as
// configured, and closes jobs when done.
func sendEventsToWorkers(ctx context.Context, source EventSource, jobs chan<- EventData) error {
	defer close(jobs)
	read := 0
	sent := 0
	for sent < configuration.MaxEvents {
		data, err := source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading event: %w", err)
		}
		read++
		if read <= configuration.Skip {
			continue
		}
		select {
		case jobs <- data:
			sent++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
