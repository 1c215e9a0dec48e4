// Package config loads JSON presets for the pitch and accordion detectors,
// following the teacher's pointer-field "optional override on top of
// defaults" pattern (algo-piano's preset package).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-ctuner/pitch"
	"github.com/cwbudde/algo-ctuner/tuning"
)

// AnalyzerFile is the JSON schema for a pitch.Settings preset.
type AnalyzerFile struct {
	AReference        *float64 `json:"a_reference"`
	Temperament       *string  `json:"temperament"`
	Key               *int     `json:"key"`
	FundamentalFilter *bool    `json:"fundamental_filter"`
	OctaveFilter      *bool    `json:"octave_filter"`
	Downsample        *bool    `json:"downsample"`
	MinMagnitude      *float64 `json:"min_magnitude"`
}

// LoadAnalyzerJSON reads path and returns pitch.Settings built by applying
// the file on top of pitch.DefaultSettings(440).
func LoadAnalyzerJSON(path string) (*pitch.Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f AnalyzerFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	settings := pitch.DefaultSettings(440.0)
	if err := ApplyAnalyzerFile(&settings, &f); err != nil {
		return nil, err
	}
	return &settings, nil
}

// ApplyAnalyzerFile applies a parsed AnalyzerFile onto an existing
// pitch.Settings, validating each field present in f.
func ApplyAnalyzerFile(dst *pitch.Settings, f *AnalyzerFile) error {
	if dst == nil {
		return fmt.Errorf("config: nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.AReference != nil {
		if *f.AReference <= 0 {
			return fmt.Errorf("config: a_reference must be > 0")
		}
		dst.AReference = *f.AReference
	}
	if f.Temperament != nil {
		t, ok := tuning.ParseTemperament(*f.Temperament)
		if !ok {
			return fmt.Errorf("config: unknown temperament %q", *f.Temperament)
		}
		dst.Temperament = t
	}
	if f.Key != nil {
		if *f.Key < 0 || *f.Key > 11 {
			return fmt.Errorf("config: key must be in [0, 11]")
		}
		dst.Key = *f.Key
	}
	if f.FundamentalFilter != nil {
		dst.FundamentalFilter = *f.FundamentalFilter
	}
	if f.OctaveFilter != nil {
		dst.OctaveFilter = *f.OctaveFilter
	}
	if f.Downsample != nil {
		dst.Downsample = *f.Downsample
	}
	if f.MinMagnitude != nil {
		v := *f.MinMagnitude
		if v < pitch.MinMagnitudeFloor {
			v = pitch.MinMagnitudeFloor
		}
		dst.MinMagnitude = v
	}

	return nil
}
