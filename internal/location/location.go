package location

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

//go:embed data/locations.json
var rawDataset []byte

var (
	ErrUnknownCountry = errors.New("unknown country")
	ErrUnknownState   = errors.New("unknown state")
)

type State struct {
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

type Country struct {
	Name   string  `json:"name"`
	Code   string  `json:"code"`
	States []State `json:"states"`
}

// CountrySummary is a country without its states
type CountrySummary struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Directory answers country/state/city lookups over the bundled dataset
type Directory struct {
	raw       []byte
	countries []Country
}

// Load parses the embedded dataset
func Load() (*Directory, error) {
	return Parse(rawDataset)
}

// Parse builds a Directory from a dataset document
func Parse(raw []byte) (*Directory, error) {
	var doc struct {
		Countries []Country `json:"countries"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse location dataset: %w", err)
	}
	sort.Slice(doc.Countries, func(i, j int) bool { return doc.Countries[i].Name < doc.Countries[j].Name })
	return &Directory{raw: raw, countries: doc.Countries}, nil
}

// Raw returns the dataset exactly as bundled
func (d *Directory) Raw() []byte {
	return d.raw
}

func (d *Directory) Countries() []CountrySummary {
	out := make([]CountrySummary, 0, len(d.countries))
	for _, c := range d.countries {
		out = append(out, CountrySummary{Name: c.Name, Code: c.Code})
	}
	return out
}

// States lists state names for a country given by name or ISO code
func (d *Directory) States(country string) ([]string, error) {
	c, ok := d.country(country)
	if !ok {
		return nil, ErrUnknownCountry
	}
	names := make([]string, 0, len(c.States))
	for _, s := range c.States {
		names = append(names, s.Name)
	}
	return names, nil
}

func (d *Directory) Cities(country, state string) ([]string, error) {
	c, ok := d.country(country)
	if !ok {
		return nil, ErrUnknownCountry
	}
	for _, s := range c.States {
		if strings.EqualFold(s.Name, strings.TrimSpace(state)) {
			return append([]string(nil), s.Cities...), nil
		}
	}
	return nil, ErrUnknownState
}

func (d *Directory) country(key string) (*Country, bool) {
	key = strings.TrimSpace(key)
	for i := range d.countries {
		c := &d.countries[i]
		if strings.EqualFold(c.Name, key) || strings.EqualFold(c.Code, key) {
			return c, true
		}
	}
	return nil, false
}
