package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-ctuner/accordion"
)

// ReedSettings is the accordion-detector configuration a ReedFile can
// override, mirroring pitch.Settings' role for AnalyzerFile.
type ReedSettings struct {
	AReference      float64
	MaxReeds        int
	ReedSpreadCents float64
	SpectrumDisplay bool
}

// DefaultReedSettings returns the accordion package's documented defaults.
func DefaultReedSettings(aReference float64) ReedSettings {
	return ReedSettings{
		AReference:      aReference,
		MaxReeds:        accordion.DefaultMaxReeds,
		ReedSpreadCents: accordion.DefaultReedSpreadCents,
		SpectrumDisplay: false,
	}
}

// ReedFile is the JSON schema for an accordion reed preset.
type ReedFile struct {
	AReference      *float64 `json:"a_reference"`
	MaxReeds        *int     `json:"max_reeds"`
	ReedSpreadCents *float64 `json:"reed_spread_cents"`
	SpectrumDisplay *bool    `json:"spectrum_display"`
}

// LoadReedJSON reads path and returns ReedSettings built by applying the
// file on top of DefaultReedSettings(440).
func LoadReedJSON(path string) (*ReedSettings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f ReedFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	settings := DefaultReedSettings(440.0)
	if err := ApplyReedFile(&settings, &f); err != nil {
		return nil, err
	}
	return &settings, nil
}

// ApplyReedFile applies a parsed ReedFile onto an existing ReedSettings,
// validating and clamping each field present in f the same way the
// accordion.Detector setters do.
func ApplyReedFile(dst *ReedSettings, f *ReedFile) error {
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
	if f.MaxReeds != nil {
		v := *f.MaxReeds
		if v < accordion.MaxReedsFloor {
			v = accordion.MaxReedsFloor
		}
		if v > accordion.MaxReedsCeil {
			v = accordion.MaxReedsCeil
		}
		dst.MaxReeds = v
	}
	if f.ReedSpreadCents != nil {
		v := *f.ReedSpreadCents
		if v < accordion.ReedSpreadFloor {
			v = accordion.ReedSpreadFloor
		}
		if v > accordion.ReedSpreadCeil {
			v = accordion.ReedSpreadCeil
		}
		dst.ReedSpreadCents = v
	}
	if f.SpectrumDisplay != nil {
		dst.SpectrumDisplay = *f.SpectrumDisplay
	}

	return nil
}

// NewDetector builds an accordion.Detector for the given sample rate from
// ReedSettings, applying SpectrumDisplay after construction.
func NewDetector(sampleRate int, s ReedSettings) (*accordion.Detector, error) {
	d, err := accordion.NewDetector(sampleRate, s.AReference, s.MaxReeds, s.ReedSpreadCents)
	if err != nil {
		return nil, err
	}
	d.SetSpectrumDisplay(s.SpectrumDisplay)
	return d, nil
}
