package regions

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

//go:embed states.csv
var statesCSV string

func GetStatesList() ([]*models.State, error) {
	arr := make([]*models.State, 0, 27)
	reader := strings.NewReader(statesCSV)

	for record := range internal.ParseCSV(reader, false, models.StateFromCSV) {
		if record.Error != nil {
			return nil, errors.Wrap(record.Error, "failed to load states")
		}
		arr = append(arr, record.Value)
	}

	return arr, nil
}

// GetStatesMap indexes every state by both its sigla and its full name.
func GetStatesMap() (States, error) {
	states, err := GetStatesList()
	if err != nil {
		return nil, err
	}

	m := make(map[string]*models.State, len(states)*2)
	for _, record := range states {
		for _, key := range []string{record.Sigla, record.Name} {
			if _, ok := m[key]; ok {
				return nil, errors.Newf("duplicate key detected: %s", key)
			}
			m[key] = record
		}
	}

	return m, nil
}

type States map[string]*models.State

// Lookup accepts a folded (upper-case, accent free) sigla or state name.
func (s States) Lookup(state string) (*models.State, bool) {
	st, ok := s[state]
	return st, ok
}

func (s States) Regions() []string {
	seen := make(map[string]struct{})
	var regions []string
	for _, st := range s {
		if _, ok := seen[st.Region]; !ok {
			seen[st.Region] = struct{}{}
			regions = append(regions, st.Region)
		}
	}
	return regions
}

var regionSiglas = map[string]string{
	"N":  "NORTE",
	"NE": "NORDESTE",
	"CO": "CENTRO-OESTE",
	"SE": "SUDESTE",
	"S":  "SUL",
}

// ExpandRegion maps the region siglas used in ANP exports to region names and
// returns anything else unchanged.
func ExpandRegion(region string) string {
	if name, ok := regionSiglas[region]; ok {
		return name
	}
	return region
}

var (
	defaultStates States
	defaultErr    error
	once          sync.Once
)

// Default returns the embedded table, parsed once.
func Default() (States, error) {
	once.Do(func() {
		defaultStates, defaultErr = GetStatesMap()
	})
	return defaultStates, defaultErr
}
