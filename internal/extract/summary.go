package extract

import (
	"sort"
	"strings"

	"curaextract/internal/diagnostic"
	"curaextract/internal/startup"
)

// Summary is the quick overview placed at the top of a report.
type Summary struct {
	Note                string                  `json:"_note"`
	MachineName         string                  `json:"machine_name"`
	Inheritance         string                  `json:"inheritance,omitempty"`
	TotalSettings       int                     `json:"total_settings"`
	Manufacturer        string                  `json:"manufacturer,omitempty"`
	StartSequenceSource string                  `json:"start_sequence_source,omitempty"`
	EndSequenceSource   string                  `json:"end_sequence_source,omitempty"`
	StartSequenceLines  int                     `json:"start_sequence_lines"`
	EndSequenceLines    int                     `json:"end_sequence_lines"`
	BuiltinQualities    []string                `json:"builtin_qualities,omitempty"`
	CustomProfiles      []string                `json:"custom_profiles,omitempty"`
	Diagnostics         map[diagnostic.Kind]int `json:"diagnostics,omitempty"`
}

// KeySetting is one entry of the quick-reference section.
type KeySetting struct {
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// CustomizationSource marks key settings taken from the user's changes.
const CustomizationSource = "your_customizations"

// KeySettingNames lists the settings surfaced in the quick-reference section.
var KeySettingNames = []string{
	"layer_height", "layer_height_0",
	"wall_thickness", "wall_line_count",
	"top_layers", "bottom_layers", "top_bottom_thickness",
	"infill_sparse_density", "infill_pattern",
	"speed_print", "speed_infill", "speed_wall", "speed_wall_0", "speed_wall_x",
	"speed_topbottom", "speed_travel", "speed_layer_0",
	"retraction_enable", "retraction_amount", "retraction_speed",
	"retraction_hop_enabled", "retraction_hop",
	"material_print_temperature", "material_bed_temperature",
	"cool_fan_speed", "cool_fan_speed_min", "cool_fan_speed_max",
	"support_enable", "support_type", "support_structure",
	"adhesion_type", "skirt_line_count", "brim_width",
	"machine_width", "machine_depth", "machine_height",
	"machine_heated_bed", "machine_nozzle_size",
}

func buildSummary(report *Report, res *Resolution) Summary {
	summary := Summary{
		Note:        "This section provides a quick overview. Full details below.",
		MachineName: report.Metadata.Machine,
	}
	if res != nil {
		summary.Inheritance = strings.Join(res.Chain.Names(), " → ")
		summary.TotalSettings = len(res.Settings)
		summary.Manufacturer = res.Manufacturer
		summary.StartSequenceSource = sourceLabel(res.Startup.Start)
		summary.EndSequenceSource = sourceLabel(res.Startup.End)
		summary.StartSequenceLines = lineCount(res.Startup.Start.Text)
		summary.EndSequenceLines = lineCount(res.Startup.End.Text)
	}
	summary.BuiltinQualities = sortedKeys(report.QualityBuiltin)
	summary.CustomProfiles = sortedKeys(report.QualityCustom)
	if len(report.Diagnostics) > 0 {
		summary.Diagnostics = diagnostic.CountByKind(report.Diagnostics)
	}
	return summary
}

func sourceLabel(seq startup.Sequence) string {
	if !seq.Found {
		return ""
	}
	if seq.Source.Path != "" {
		return seq.Source.Path
	}
	return seq.Source.Name
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// buildKeySettings prefers the user's definition_changes value, then the
// most specific merged value.
func buildKeySettings(res *Resolution) map[string]KeySetting {
	out := make(map[string]KeySetting)
	if res == nil {
		return out
	}
	var changes map[string]string
	if res.Changes != nil {
		changes = res.Changes.Values()
	}
	for _, name := range KeySettingNames {
		if value, ok := changes[name]; ok {
			out[name] = KeySetting{Value: value, Source: CustomizationSource}
			continue
		}
		desc, ok := res.Settings[name]
		if !ok {
			continue
		}
		value, _ := desc.Value()
		source := desc.Source()
		if source == "" {
			source = "default"
		}
		out[name] = KeySetting{Value: value, Source: source}
	}
	return out
}
