package scintsim

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"
)

// Detector kinds a volume can be made sensitive with.
const (
	KindScintillator = "scintillator"
	KindScorer       = "scorer"
	KindSiPM         = "sipm"
)

const (
	ScintillatorSDName = "scintillators"
	SiPMSDName         = "sipm"
	WorldName          = "World"
)

// Volume is a placed volume of the geometry. Sizes are half lengths in mm.
type Volume struct {
	Name      string     `toml:"name"`
	Shape     string     `toml:"shape"`
	HalfX     float64    `toml:"half_x"`
	HalfY     float64    `toml:"half_y"`
	HalfZ     float64    `toml:"half_z"`
	Position  [3]float64 `toml:"position"`
	Channel   *int       `toml:"channel"`
	Detectors []string   `toml:"detectors"`
}

func (v Volume) IsBox() bool {
	return v.Shape == "" || strings.EqualFold(v.Shape, "box")
}

func (v Volume) Center() r3.Vec {
	return r3.Vec{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
}

func (v Volume) sensitiveAs(kind string) bool {
	for _, d := range v.Detectors {
		if d == kind {
			return true
		}
	}
	return false
}

// Geometry is the description of the world and of the volumes the pipeline
// has to know about: their names, channel ids and sensitivity.
type Geometry struct {
	World   Volume   `toml:"world"`
	Volumes []Volume `toml:"volume"`
}

func intPtr(i int) *int { return &i }

// DefaultGeometry is the three-scintillator setup with an iron absorber and
// a SiPM behind the last scintillator.
func DefaultGeometry() Geometry {
	envXY, envZ := 20*Cm, 50*Cm
	scintX, scintY, scintZ := 16*Cm, 11*Cm, 2*Cm
	sensitive := []string{KindScintillator, KindScorer}
	return Geometry{
		World: Volume{
			Name:  WorldName,
			Shape: "box",
			HalfX: 1.2 * envXY / 2,
			HalfY: 1.2 * envXY / 2,
			HalfZ: 1.2 * envZ / 2,
		},
		Volumes: []Volume{
			{Name: "scintPV0", HalfX: scintX / 2, HalfY: scintY / 2, HalfZ: scintZ / 2,
				Channel: intPtr(0), Detectors: sensitive},
			{Name: "scintPV1", HalfX: scintX / 2, HalfY: scintY / 6, HalfZ: scintZ,
				Position: [3]float64{0, 0, 3 * scintZ / 2}, Channel: intPtr(1), Detectors: sensitive},
			{Name: "scintPV2", HalfX: scintX / 2, HalfY: scintY / 2, HalfZ: scintZ / 2,
				Position: [3]float64{0, 0, 100}, Channel: intPtr(2), Detectors: sensitive},
			{Name: "absorberPV", HalfX: scintX / 2, HalfY: scintY / 2, HalfZ: scintZ / 2,
				Position: [3]float64{0, 0, 100 - scintZ}},
			{Name: "sipmPV", HalfX: 3 * Mm, HalfY: 3 * Mm, HalfZ: 0.5 * Mm,
				Position: [3]float64{0, 0, 100 + scintZ/2 + 0.5*Mm}, Channel: intPtr(0),
				Detectors: []string{KindSiPM}},
		},
	}
}

// LoadGeometry reads a geometry description. A file without a world keeps
// the default one.
func LoadGeometry(path string) (Geometry, error) {
	geometry := Geometry{}
	meta, err := toml.DecodeFile(path, &geometry)
	if err != nil {
		return Geometry{}, fmt.Errorf("load geometry: %w", err)
	}
	if !meta.IsDefined("world") {
		geometry.World = DefaultGeometry().World
	}
	for _, key := range meta.Undecoded() {
		logger.Warn(fmt.Sprintf("unknown geometry key %q ignored", key.String()), "geometry")
	}
	seen := make(map[string]bool)
	for _, v := range geometry.Volumes {
		if v.Name == "" {
			return Geometry{}, fmt.Errorf("load geometry: volume without a name")
		}
		if seen[v.Name] {
			return Geometry{}, fmt.Errorf("load geometry: duplicated volume %q", v.Name)
		}
		seen[v.Name] = true
		for _, kind := range v.Detectors {
			switch kind {
			case KindScintillator, KindScorer, KindSiPM:
			default:
				return Geometry{}, fmt.Errorf("load geometry: volume %q: unknown detector kind %q", v.Name, kind)
			}
		}
	}
	return geometry, nil
}

// VolumeMap returns the explicit channel ids of the geometry.
func (g Geometry) VolumeMap() *VolumeMap {
	volumes := NewVolumeMap()
	for _, v := range g.Volumes {
		if v.Channel != nil {
			volumes.Set(v.Name, int32(*v.Channel))
		}
	}
	return volumes
}

// GunPosition places the primary vertex on the upstream face of the world.
// If the world is not a box the gun goes to the center and a warning is logged.
func (g Geometry) GunPosition() r3.Vec {
	if !g.World.IsBox() {
		logger.Warn("World volume is not a box shape, geometry has changed. The gun will be placed in the center", "geometry")
		return r3.Vec{}
	}
	return r3.Vec{X: 0, Y: 0, Z: -g.World.HalfZ}
}

// ScorerName is the name of the multi-functional detector of a channel.
func ScorerName(channel int32) string {
	return fmt.Sprintf("Scintillator%d", channel)
}

// DetectorOptions are the per-worker settings used to build the detectors.
type DetectorOptions struct {
	Worker     WorkerID
	NumWorkers int
	// NewEngine creates the SiPM response engine. Without it no gossip
	// output is produced.
	NewEngine func() (ResponseEngine, error)
}

// WorkerFilename inserts "_t<worker>" before the extension when more than
// one worker writes its own copy of a file.
func WorkerFilename(name string, worker WorkerID, numWorkers int) string {
	if numWorkers <= 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_t%d%s", strings.TrimSuffix(name, ext), worker, ext)
}

// BuildDetectors creates the sensitive detectors of one worker and binds them
// to their volumes.
func BuildDetectors(g Geometry, registry *Registry, volumes *VolumeMap, opts DetectorOptions) (*DetectorManager, error) {
	manager := NewDetectorManager(registry)
	fail := func(err error) (*DetectorManager, error) {
		return nil, errors.Join(err, manager.Close())
	}

	var scint *ScintillatorSD
	var sipm *SiPMSD
	for _, v := range g.Volumes {
		if v.sensitiveAs(KindScintillator) {
			if scint == nil {
				scint = NewScintillatorSD(ScintillatorSDName, configuration.ScintParticle, volumes)
				if err := manager.AddNewDetector(scint); err != nil {
					return fail(err)
				}
			}
			manager.SetSensitiveDetector(v.Name, scint)
		}
		if v.sensitiveAs(KindScorer) {
			mfd := NewMultiFunctionalDetector(ScorerName(volumes.Channel(v.Name)))
			mfd.RegisterPrimitive(NewEnergyDeposit("Edep", 0))
			mfd.RegisterPrimitive(NewNofSecondary("nGamma", configuration.PhotonParticle, 0))
			if err := manager.AddNewDetector(mfd); err != nil {
				return fail(err)
			}
			manager.SetSensitiveDetector(v.Name, mfd)
		}
		if v.sensitiveAs(KindSiPM) {
			if sipm == nil {
				var err error
				if sipm, err = newSiPM(opts); err != nil {
					return fail(err)
				}
				if err := manager.AddNewDetector(sipm); err != nil {
					return fail(errors.Join(err, sipm.Close()))
				}
			}
			manager.SetSensitiveDetector(v.Name, sipm)
		}
	}
	return manager, nil
}

func newSiPM(opts DetectorOptions) (*SiPMSD, error) {
	var engine ResponseEngine
	if configuration.WriteGossip {
		if opts.NewEngine == nil {
			logger.Warn("SiPM response engine not available, gossip output disabled", "geometry")
		} else {
			var err error
			if engine, err = opts.NewEngine(); err != nil {
				return nil, fmt.Errorf("creating SiPM response engine: %w", err)
			}
		}
	}

	sipm := NewSiPMSD(SiPMSDName, engine)
	if configuration.WritePhotons {
		stream, err := OpenPhotonStream(WorkerFilename(configuration.FilePhotons, opts.Worker, opts.NumWorkers))
		if err != nil {
			return nil, err
		}
		sipm.SetPhotonStream(stream)
	}
	if engine != nil {
		stream, err := OpenGossipStream(WorkerFilename(configuration.FileGossip, opts.Worker, opts.NumWorkers))
		if err != nil {
			return nil, errors.Join(err, sipm.Close())
		}
		sipm.SetGossipStream(stream)
	}
	return sipm, nil
}
