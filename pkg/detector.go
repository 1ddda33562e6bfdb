package scintsim

import (
	"errors"
	"fmt"
	"io"
)

// SensitiveDetector is the callback set the engine drives for every event.
// Implementations are ScintillatorSD, SiPMSD and MultiFunctionalDetector.
type SensitiveDetector interface {
	Name() string
	// CollectionNames are the logical names of the collections created each event.
	CollectionNames() []string
	OnEventBegin(evt *Event) error
	// OnStep reports whether the step produced a hit.
	OnStep(step *Step) bool
	OnEventEnd(evt *Event) error
}

// detectorBase carries the name, registry binding and cached collection ids
// shared by every detector variant.
type detectorBase struct {
	name        string
	collections []string
	registry    *Registry
	ids         idCache
}

func newDetectorBase(name string, collections ...string) detectorBase {
	return detectorBase{name: name, collections: collections}
}

func (d *detectorBase) Name() string { return d.name }

func (d *detectorBase) CollectionNames() []string {
	names := make([]string, len(d.collections))
	for i, c := range d.collections {
		names[i] = LogicalName(d.name, c)
	}
	return names
}

func (d *detectorBase) setRegistry(r *Registry) { d.registry = r }

// collectionIDs returns the registry ids of the detector's collections,
// resolving them at most once per registry generation.
func (d *detectorBase) collectionIDs() ([]int, error) {
	if d.registry == nil {
		return nil, fmt.Errorf("detector %q is not registered", d.name)
	}
	return d.ids.resolve(d.registry, d.CollectionNames())
}

type registryBinder interface {
	setRegistry(*Registry)
}

// DetectorManager owns the detectors of one worker and routes steps to the
// detectors bound to the step's volume.
type DetectorManager struct {
	registry  *Registry
	detectors []SensitiveDetector
	byName    map[string]SensitiveDetector
	volumes   map[string][]SensitiveDetector
}

func NewDetectorManager(registry *Registry) *DetectorManager {
	return &DetectorManager{
		registry: registry,
		byName:   make(map[string]SensitiveDetector),
		volumes:  make(map[string][]SensitiveDetector),
	}
}

// AddNewDetector registers the detector and its collection names.
func (m *DetectorManager) AddNewDetector(sd SensitiveDetector) error {
	if _, ok := m.byName[sd.Name()]; ok {
		return fmt.Errorf("detector %q already added", sd.Name())
	}
	for _, name := range sd.CollectionNames() {
		m.registry.Register(name)
	}
	if b, ok := sd.(registryBinder); ok {
		b.setRegistry(m.registry)
	}
	m.byName[sd.Name()] = sd
	m.detectors = append(m.detectors, sd)
	return nil
}

// SetSensitiveDetector binds sd to a volume. A volume may carry several detectors.
func (m *DetectorManager) SetSensitiveDetector(volume string, sd SensitiveDetector) {
	for _, bound := range m.volumes[volume] {
		if bound == sd {
			return
		}
	}
	m.volumes[volume] = append(m.volumes[volume], sd)
}

func (m *DetectorManager) FindDetector(name string) (SensitiveDetector, bool) {
	sd, ok := m.byName[name]
	return sd, ok
}

func (m *DetectorManager) Detectors() []SensitiveDetector {
	return m.detectors
}

// DetectorsOf returns the detectors bound to a volume.
func (m *DetectorManager) DetectorsOf(volume string) []SensitiveDetector {
	return m.volumes[volume]
}

// PrepareNewEvent opens a fresh collection on every detector.
func (m *DetectorManager) PrepareNewEvent(evt *Event) error {
	for _, sd := range m.detectors {
		if err := sd.OnEventBegin(evt); err != nil {
			return fmt.Errorf("detector %q: %w", sd.Name(), err)
		}
	}
	return nil
}

// ProcessStep hands step to the detectors of its volume and reports whether
// any of them produced a hit.
func (m *DetectorManager) ProcessStep(step *Step) bool {
	accepted := false
	for _, sd := range m.volumes[step.Track.VolumeName] {
		if sd.OnStep(step) {
			accepted = true
		}
	}
	return accepted
}

func (m *DetectorManager) TerminateEvent(evt *Event) error {
	var errs []error
	for _, sd := range m.detectors {
		if err := sd.OnEventEnd(evt); err != nil {
			errs = append(errs, fmt.Errorf("detector %q: %w", sd.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the files held by detectors.
func (m *DetectorManager) Close() error {
	var errs []error
	for _, sd := range m.detectors {
		if c, ok := sd.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing detector %q: %w", sd.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
