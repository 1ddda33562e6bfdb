package scintsim

import (
	"fmt"
)

const (
	ScintillatorTable = "Scintillators"
	PhotonTable       = "Photons"
)

// Channel is one monitored scintillator: the summed energy deposit named by
// EdepScore is read every event, histogrammed and printed.
type Channel struct {
	Name      string
	EdepScore string // logical name of the summed-quantity map
}

type EventActionConfig struct {
	ScintCollections  []string // logical names of scintillator hit collections
	PhotonCollections []string // logical names of SiPM hit collections
	Channels          []Channel
	PrintModulo       int
	HistogramBins     int
	HistogramMax      float64
}

// NewEventActionConfig builds the aggregation setup from the configured
// detectors: every ScintillatorSD, SiPMSD and the "Edep" scorer of every
// MultiFunctionalDetector.
func NewEventActionConfig(detectors []SensitiveDetector) EventActionConfig {
	config := EventActionConfig{
		PrintModulo:   configuration.PrintModulo,
		HistogramBins: configuration.HistogramBins,
		HistogramMax:  configuration.HistogramMax,
	}
	for _, sd := range detectors {
		switch d := sd.(type) {
		case *ScintillatorSD:
			config.ScintCollections = append(config.ScintCollections, d.CollectionNames()...)
		case *SiPMSD:
			config.PhotonCollections = append(config.PhotonCollections, d.CollectionNames()...)
		case *MultiFunctionalDetector:
			for _, p := range d.primitives {
				if _, ok := p.(*EnergyDeposit); ok {
					config.Channels = append(config.Channels, Channel{
						Name:      d.Name(),
						EdepScore: LogicalName(d.Name(), p.Name()),
					})
				}
			}
		}
	}
	return config
}

// EventAction aggregates the hit collections of every event into the
// particle and photon records and feeds the analysis manager. It is the only
// writer of its records, which are cleared at the beginning of every event.
type EventAction struct {
	registry *Registry
	analysis *AnalysisManager
	config   EventActionConfig

	names []string
	ids   idCache

	particles ParticleRecord
	photons   PhotonRecord
	eventID   int32
	sums      []float64

	histograms  []int
	scintTable  int
	photonTable int
}

func NewEventAction(registry *Registry, analysis *AnalysisManager, config EventActionConfig) (*EventAction, error) {
	a := &EventAction{
		registry:    registry,
		analysis:    analysis,
		config:      config,
		sums:        make([]float64, len(config.Channels)),
		scintTable:  -1,
		photonTable: -1,
	}
	a.names = append(a.names, config.ScintCollections...)
	a.names = append(a.names, config.PhotonCollections...)
	for _, ch := range config.Channels {
		a.names = append(a.names, ch.EdepScore)
	}

	if analysis != nil {
		if err := a.book(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// book creates one histogram per channel and the output tables.
func (a *EventAction) book() error {
	bins, high := a.config.HistogramBins, a.config.HistogramMax
	if bins <= 0 {
		bins = 100
	}
	// A lone channel collects the whole deposit, so the default range widens
	// to 5 GeV. An explicit histogram_max is kept.
	defaultHigh := DefaultConfiguration().HistogramMax
	if high <= 0 || high == defaultHigh {
		high = defaultHigh
		if len(a.config.Channels) == 1 {
			high = 5 * GeV
		}
	}
	for _, ch := range a.config.Channels {
		id, err := a.analysis.CreateH1(ch.Name+"_Edep", "Energy deposit in "+ch.Name, bins, 0, high, MeV)
		if err != nil {
			return err
		}
		a.histograms = append(a.histograms, id)
	}

	if len(a.config.ScintCollections) > 0 {
		id, t := a.analysis.CreateTable(ScintillatorTable, RowPerEntry)
		t.Int32("event_id", &a.eventID).
			Int32s("detector_id", &a.particles.DetectorID).
			Float64s("energy_deposit", &a.particles.Edep).
			Float64s("pos_x", &a.particles.PosX).
			Float64s("pos_y", &a.particles.PosY)
		if err := a.analysis.FinishTable(id); err != nil {
			return err
		}
		a.scintTable = id
	}

	if len(a.config.PhotonCollections) > 0 {
		id, t := a.analysis.CreateTable(PhotonTable, RowPerEvent)
		t.Int32("event_id", &a.eventID).
			Int32("n_photons", &a.photons.NPhotons).
			Float64s("pos_x", &a.photons.PosX).
			Float64s("pos_y", &a.photons.PosY).
			Float64s("pos_z", &a.photons.PosZ).
			Float64s("time", &a.photons.Time).
			Float64s("wavelength", &a.photons.Wavelength)
		if err := a.analysis.FinishTable(id); err != nil {
			return err
		}
		a.photonTable = id
	}
	return nil
}

// OnEventBegin resolves the collection ids, once per registry generation, and
// clears the records.
func (a *EventAction) OnEventBegin(*Event) error {
	if _, err := a.ids.resolve(a.registry, a.names); err != nil {
		return err
	}
	a.particles.ClearVecs()
	a.photons.ClearVecs()
	for i := range a.sums {
		a.sums[i] = 0
	}
	return nil
}

func (a *EventAction) OnEventEnd(evt *Event) error {
	ids, err := a.ids.resolve(a.registry, a.names)
	if err != nil {
		return err
	}
	a.eventID = int32(evt.ID)

	next := 0
	for _, name := range a.config.ScintCollections {
		hc := GetScintillatorHits(evt, ids[next])
		next++
		if hc == nil {
			a.missing(evt, name)
			continue
		}
		a.particles.Populate(hc)
	}
	for i, name := range a.config.PhotonCollections {
		hc := GetPhotonHits(evt, ids[next])
		next++
		if hc == nil {
			a.missing(evt, name)
			continue
		}
		a.photons.Populate(int32(i), hc)
	}
	if err := a.particles.Check(); err != nil {
		return err
	}
	if err := a.photons.Check(); err != nil {
		return err
	}

	for i := range a.config.Channels {
		a.sums[i] = GetHitsMap(evt, ids[next]).Sum()
		next++
	}

	if a.analysis != nil {
		for i, h := range a.histograms {
			a.analysis.FillH1(h, a.sums[i], 1)
		}
		if a.scintTable >= 0 {
			if err := a.analysis.AddRow(a.scintTable); err != nil {
				return err
			}
		}
		if a.photonTable >= 0 {
			if err := a.analysis.AddRow(a.photonTable); err != nil {
				return err
			}
		}
	}

	if a.config.PrintModulo > 0 && evt.ID%a.config.PrintModulo == 0 {
		logger.Info(fmt.Sprintf("---> End of event: %d", evt.ID), "EventAction")
		for i, ch := range a.config.Channels {
			logger.Info(fmt.Sprintf("%s: total energy: %s", ch.Name, BestEnergy(a.sums[i])), "EventAction")
		}
	}
	return nil
}

func (a *EventAction) missing(evt *Event, name string) {
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("event %d: no hits collection %q", evt.ID, name), "EventAction")
	}
}

func (a *EventAction) Particles() *ParticleRecord { return &a.particles }
func (a *EventAction) Photons() *PhotonRecord     { return &a.photons }

// Sums returns the summed energy deposit of every channel in the last event.
func (a *EventAction) Sums() []float64 { return a.sums }

func (a *EventAction) Histogram(channel int) *H1 {
	if a.analysis == nil || channel < 0 || channel >= len(a.histograms) {
		return nil
	}
	return a.analysis.GetH1(a.histograms[channel])
}
