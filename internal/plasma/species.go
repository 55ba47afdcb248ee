package plasma

import (
	"fmt"
	"sort"
	"strings"
)

// CODATA 2018 values.
const (
	SpeedOfLight     = 299792458.0
	ElementaryCharge = 1.602176634e-19
	Mu0              = 1.25663706212e-6
	Epsilon0         = 8.8541878128e-12

	ProtonMass   = 1.67262192369e-27
	ElectronMass = 9.1093837015e-31
	DeuteronMass = 3.3435837724e-27
	TritonMass   = 5.0073567446e-27
	AlphaMass    = 6.6446573357e-27
)

type Species struct {
	Name   string  `json:"name" yaml:"name"`
	Charge float64 `json:"charge" yaml:"charge"`
	Mass   float64 `json:"mass" yaml:"mass"`
}

var (
	Proton   = Species{Name: "p", Charge: ElementaryCharge, Mass: ProtonMass}
	Electron = Species{Name: "e-", Charge: -ElementaryCharge, Mass: ElectronMass}
	Positron = Species{Name: "e+", Charge: ElementaryCharge, Mass: ElectronMass}
	Deuteron = Species{Name: "D+", Charge: ElementaryCharge, Mass: DeuteronMass}
	Triton   = Species{Name: "T+", Charge: ElementaryCharge, Mass: TritonMass}
	Alpha    = Species{Name: "alpha", Charge: 2 * ElementaryCharge, Mass: AlphaMass}
)

var speciesTable = map[string]Species{
	"p":        Proton,
	"p+":       Proton,
	"proton":   Proton,
	"e-":       Electron,
	"electron": Electron,
	"e+":       Positron,
	"positron": Positron,
	"d+":       Deuteron,
	"t+":       Triton,
	"alpha":    Alpha,
	"he-4 2+":  Alpha,
}

// LookupSpecies resolves a particle symbol such as "p", "e-" or "He-4 2+".
func LookupSpecies(name string) (Species, error) {
	s, ok := speciesTable[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Species{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return s, nil
}

func SpeciesNames() []string {
	names := make([]string, 0, len(speciesTable))
	for name := range speciesTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChargeToMass returns q/m in C/kg.
func (s Species) ChargeToMass() float64 {
	return s.Charge / s.Mass
}

func (s Species) String() string {
	return s.Name
}
