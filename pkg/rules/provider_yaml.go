package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML rule files
type YAMLProvider struct {
	filename string
	source   *Source
}

// NewYAMLProvider creates a new YAML rules provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadSource reads the YAML file into the shared source form
func (y *YAMLProvider) LoadSource() (*Source, error) {
	ruleFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	src, err := ParseYAML(ruleFile)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	y.source = src
	return src, nil
}

// LoadRules loads and validates the rule set
func (y *YAMLProvider) LoadRules() (*RuleConfig, error) {
	if y.source == nil {
		if _, err := y.LoadSource(); err != nil {
			return nil, err
		}
	}
	return y.source.Build()
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// ParseYAML decodes a YAML rule document.
func ParseYAML(data []byte) (*Source, error) {
	var doc RulesYAML
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, err
	}

	src := &Source{
		StatusFilter:   doc.StatusFilter,
		BurstThreshold: doc.BurstThreshold,
		Users:          make(map[string]User, len(doc.Users)),
		Shifts:         make([]ShiftSource, len(doc.Shifts)),
	}

	for name, u := range doc.Users {
		src.Users[name] = User{
			DisplayName: u.OutputName,
			DisplayID:   u.OutputID,
		}
	}

	for i, s := range doc.Shifts {
		src.Shifts[i] = ShiftSource{
			Code:            s.Code,
			DisplayName:     s.DisplayName,
			CheckInRange:    s.CheckIn.SearchRange,
			CheckOutRange:   s.CheckOut.SearchRange,
			BreakRange:      s.Break.SearchRange,
			ShiftStart:      s.CheckIn.ShiftStart,
			CheckInOnTime:   s.CheckIn.OnTimeCutoff,
			CheckInLate:     s.CheckIn.LateThreshold,
			BreakCheckpoint: s.Break.Checkpoint,
			BreakInCutoff:   s.Break.Cutoff,
			Midpoint:        s.Break.Midpoint,
			MinimumBreakGap: s.Break.MinimumGap,
			BreakEnd:        s.Break.BreakEnd,
			BreakInOnTime:   s.Break.OnTimeCutoff,
			BreakInLate:     s.Break.LateThreshold,
			GracePeriod:     s.GracePeriod,
			CrossesMidnight: s.CrossesMidnight,
		}
	}

	return src, nil
}

// MarshalYAML encodes src back into the YAML rule document format.
func (src *Source) MarshalYAML() (interface{}, error) {
	doc := RulesYAML{
		StatusFilter:   src.StatusFilter,
		BurstThreshold: src.BurstThreshold,
		Users:          make(map[string]UserYAML, len(src.Users)),
		Shifts:         make([]ShiftYAML, len(src.Shifts)),
	}

	for name, u := range src.Users {
		doc.Users[name] = UserYAML{OutputName: u.DisplayName, OutputID: u.DisplayID}
	}

	for i, s := range src.Shifts {
		doc.Shifts[i] = ShiftYAML{
			Code:            s.Code,
			DisplayName:     s.DisplayName,
			GracePeriod:     s.GracePeriod,
			CrossesMidnight: s.CrossesMidnight,
			CheckIn: CheckInYAML{
				SearchRange:   s.CheckInRange,
				ShiftStart:    s.ShiftStart,
				OnTimeCutoff:  s.CheckInOnTime,
				LateThreshold: s.CheckInLate,
			},
			CheckOut: CheckOutYAML{SearchRange: s.CheckOutRange},
			Break: BreakYAML{
				SearchRange:   s.BreakRange,
				Checkpoint:    s.BreakCheckpoint,
				Cutoff:        s.BreakInCutoff,
				Midpoint:      s.Midpoint,
				MinimumGap:    s.MinimumBreakGap,
				BreakEnd:      s.BreakEnd,
				OnTimeCutoff:  s.BreakInOnTime,
				LateThreshold: s.BreakInLate,
			},
		}
	}

	return doc, nil
}

// YAML-specific structs with YAML tags for parsing rule files
type RulesYAML struct {
	StatusFilter   string              `yaml:"status-filter"`
	BurstThreshold string              `yaml:"burst-threshold"`
	Users          map[string]UserYAML `yaml:"users"`
	Shifts         []ShiftYAML         `yaml:"shifts"`
}

type UserYAML struct {
	OutputName string `yaml:"output-name"`
	OutputID   string `yaml:"output-id"`
}

type ShiftYAML struct {
	Code            string       `yaml:"code"`
	DisplayName     string       `yaml:"display-name,omitempty"`
	GracePeriod     string       `yaml:"grace-period,omitempty"`
	CrossesMidnight *bool        `yaml:"crosses-midnight,omitempty"`
	CheckIn         CheckInYAML  `yaml:"check-in"`
	CheckOut        CheckOutYAML `yaml:"check-out"`
	Break           BreakYAML    `yaml:"break"`
}

type CheckInYAML struct {
	SearchRange   string `yaml:"search-range"`
	ShiftStart    string `yaml:"shift-start"`
	OnTimeCutoff  string `yaml:"on-time-cutoff,omitempty"`
	LateThreshold string `yaml:"late-threshold,omitempty"`
}

type CheckOutYAML struct {
	SearchRange string `yaml:"search-range"`
}

type BreakYAML struct {
	SearchRange   string `yaml:"search-range"`
	Checkpoint    string `yaml:"checkpoint,omitempty"`
	Cutoff        string `yaml:"cutoff,omitempty"`
	Midpoint      string `yaml:"midpoint"`
	MinimumGap    string `yaml:"minimum-gap"`
	BreakEnd      string `yaml:"break-end"`
	OnTimeCutoff  string `yaml:"on-time-cutoff,omitempty"`
	LateThreshold string `yaml:"late-threshold,omitempty"`
}
