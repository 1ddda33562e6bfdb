package scintsim

// PrimitiveScorer accumulates one quantity of a step into a HitsMap.
type PrimitiveScorer interface {
	Name() string
	Score(step *Step, m *HitsMap) bool
}

// EnergyDeposit sums the energy deposited in the volume.
type EnergyDeposit struct {
	name  string
	index int
}

func NewEnergyDeposit(name string, index int) *EnergyDeposit {
	return &EnergyDeposit{name: name, index: index}
}

func (p *EnergyDeposit) Name() string { return p.name }

func (p *EnergyDeposit) Score(step *Step, m *HitsMap) bool {
	if step.TotalEnergyDeposit == 0 {
		return false
	}
	m.Add(p.index, step.TotalEnergyDeposit)
	return true
}

// NofSecondary counts secondaries of the filtered type created in the volume.
// An empty filter counts every secondary.
type NofSecondary struct {
	name   string
	filter string
	index  int
}

func NewNofSecondary(name string, filter string, index int) *NofSecondary {
	return &NofSecondary{name: name, filter: filter, index: index}
}

func (p *NofSecondary) Name() string { return p.name }

func (p *NofSecondary) Score(step *Step, m *HitsMap) bool {
	n := 0
	for _, particle := range step.Secondaries {
		if p.filter == "" || particle == p.filter {
			n++
		}
	}
	if n == 0 {
		return false
	}
	m.Add(p.index, float64(n))
	return true
}

// MultiFunctionalDetector produces one summed-quantity map per registered
// primitive, named "<detector>/<primitive>".
type MultiFunctionalDetector struct {
	detectorBase
	primitives []PrimitiveScorer
	maps       []*HitsMap
}

func NewMultiFunctionalDetector(name string) *MultiFunctionalDetector {
	return &MultiFunctionalDetector{detectorBase: newDetectorBase(name)}
}

// RegisterPrimitive must be called before the detector is added to a manager.
func (d *MultiFunctionalDetector) RegisterPrimitive(p PrimitiveScorer) {
	d.primitives = append(d.primitives, p)
	d.collections = append(d.collections, p.Name())
}

func (d *MultiFunctionalDetector) OnEventBegin(evt *Event) error {
	ids, err := d.collectionIDs()
	if err != nil {
		return err
	}
	d.maps = d.maps[:0]
	for i, p := range d.primitives {
		m := NewHitsMap(d.name, p.Name())
		d.maps = append(d.maps, m)
		evt.HCE.Add(ids[i], m)
	}
	return nil
}

func (d *MultiFunctionalDetector) OnStep(step *Step) bool {
	if len(d.maps) != len(d.primitives) {
		return false
	}
	scored := false
	for i, p := range d.primitives {
		if p.Score(step, d.maps[i]) {
			scored = true
		}
	}
	return scored
}

func (d *MultiFunctionalDetector) OnEventEnd(*Event) error {
	d.maps = d.maps[:0]
	return nil
}
