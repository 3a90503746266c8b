package compress

import (
	"strings"

	"github.com/vishalharkal15/pdf-convert/internal/document"
)

// FieldAppearances controls what happens to interactive form appearances on write.
type FieldAppearances string

const (
	// AppearancesDefault asks viewers to regenerate field appearances
	AppearancesDefault FieldAppearances = "default"
	// AppearancesOff leaves the interactive form untouched
	AppearancesOff FieldAppearances = "off"
)

// Preset is a named set of write options.
type Preset struct {
	Name             string
	ObjectStreams    bool
	FieldAppearances FieldAppearances
}

// Preset names accepted in the compressionLevel field
const (
	PresetLow     = "low"
	PresetMedium  = "medium"
	PresetHigh    = "high"
	PresetDefault = "default"
)

var presets = map[string]Preset{
	PresetLow:     {Name: PresetLow, ObjectStreams: false, FieldAppearances: AppearancesDefault},
	PresetMedium:  {Name: PresetMedium, ObjectStreams: true, FieldAppearances: AppearancesDefault},
	PresetHigh:    {Name: PresetHigh, ObjectStreams: true, FieldAppearances: AppearancesOff},
	PresetDefault: {Name: PresetDefault, ObjectStreams: true, FieldAppearances: AppearancesDefault},
}

// ResolvePreset returns the preset for level. Unknown or empty levels
// resolve to the default preset.
func ResolvePreset(level string) Preset {
	if p, ok := presets[strings.ToLower(strings.TrimSpace(level))]; ok {
		return p
	}
	return presets[PresetDefault]
}

// PresetNames lists the accepted levels.
func PresetNames() []string {
	return []string{PresetLow, PresetMedium, PresetHigh, PresetDefault}
}

// WriteOptions converts the preset into document write options.
func (p Preset) WriteOptions() document.WriteOptions {
	return document.WriteOptions{
		ObjectStreams:           p.ObjectStreams,
		RequestFieldAppearances: p.FieldAppearances == AppearancesDefault,
	}
}
