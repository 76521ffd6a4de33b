package preferences

import (
	"slices"
	"sort"
)

// BandFrequencies are the equalizer band centers in Hz.
var BandFrequencies = []int{32, 64, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// Gain limits of a band in dB.
const (
	MinGain = -12
	MaxGain = 12
)

// PresetCustom is reported when the bands match no preset.
const PresetCustom = "custom"

var presets = map[string][]int{
	"flat":       {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	"bass":       {7, 6, 5, 2, 0, 0, 0, 0, 0, 0},
	"treble":     {0, 0, 0, 0, 0, 1, 3, 5, 7, 8},
	"electronic": {4, 3, 0, -2, -3, 0, 3, 4, 5, 6},
	"rock":       {4, 3, 2, 1, -1, -1, 0, 2, 3, 4},
	"vocal":      {-2, -3, -2, 1, 4, 4, 3, 1, -1, -2},
}

// Preset returns the band gains of a named preset.
func Preset(name string) ([]int, bool) {
	bands, ok := presets[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(bands), true
}

// PresetNames returns the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchPreset returns the preset whose gains equal bands, or PresetCustom.
func MatchPreset(bands []int) string {
	for _, name := range PresetNames() {
		if slices.Equal(presets[name], bands) {
			return name
		}
	}
	return PresetCustom
}
