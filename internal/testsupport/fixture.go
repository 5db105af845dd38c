package testsupport

import (
	"testing"

	"curaextract/internal/config"
)

// Names used by SeedFixture.
const (
	FixtureMachine     = "Ender-3 Pro"
	FixtureLeaf        = "creality_ender3pro"
	FixtureChanges     = "Ender-3 Pro_settings"
	FixtureStartGcode  = "G28 ;Home\nG1 Z15.0 F6000 ;Move the platform down"
	FixtureEndGcode    = "M104 S0\nM140 S0\nM84"
	FixtureNozzleSize  = "0.6"
	FixtureCustomName  = "My Fast"
	FixtureVendorTag   = "creality"
	FixtureLayerHeight = "0.2"
)

const fdmprinterDef = `{
  "name": "FFF Printer",
  "version": 2,
  "metadata": {"visible": false},
  "settings": {
    "machine_settings": {
      "label": "Machine",
      "type": "category",
      "children": {
        "machine_name": {"type": "str", "default_value": "Unknown"},
        "machine_width": {"type": "float", "unit": "mm", "default_value": 100},
        "machine_depth": {"type": "float", "unit": "mm", "default_value": 100},
        "machine_height": {"type": "float", "unit": "mm", "default_value": 100},
        "machine_heated_bed": {"type": "bool", "default_value": false},
        "machine_nozzle_size": {"type": "float", "unit": "mm", "default_value": 0.4, "minimum_value": "0.001"},
        "machine_start_gcode": {"type": "str", "default_value": "G28 ;Home"},
        "machine_end_gcode": {"type": "str", "default_value": "M104 S0"}
      }
    },
    "resolution": {
      "type": "category",
      "children": {
        "layer_height": {"type": "float", "unit": "mm", "default_value": 0.1}
      }
    }
  }
}`

const crealityBaseDef = `{
  "name": "Creality Base Printer",
  "inherits": "fdmprinter",
  "metadata": {"manufacturer": "Creality3D", "visible": false},
  "overrides": {
    "machine_heated_bed": {"default_value": true},
    "machine_end_gcode": {"default_value": "M104 S0\nM140 S0\nM84"},
    "layer_height": {"default_value": 0.2}
  }
}`

const enderDef = `{
  "name": "Creality Ender-3 Pro",
  "inherits": "creality_base",
  "metadata": {"visible": true},
  "overrides": {
    "machine_name": {"default_value": "Creality Ender-3 Pro"},
    "machine_width": {"default_value": 220},
    "machine_depth": {"default_value": 220},
    "machine_height": {"default_value": 250}
  }
}`

const enderChanges = `[general]
version = 4
name = Ender-3 Pro_settings
definition = creality_ender3pro

[metadata]
type = definition_changes
setting_version = 22

[values]
machine_nozzle_size = 0.6
machine_start_gcode = G28 ;Home
	G1 Z15.0 F6000 ;Move the platform down
`

const extruderStack = `[general]
version = 5
name = Extruder 1
id = Ender-3 Pro_extruder_0

[metadata]
type = extruder_train
machine = Ender-3 Pro
position = 0

[containers]
6 = creality_extruder_0_settings
7 = creality_base_extruder_0
`

const extruderChanges = `[general]
version = 4
name = creality_extruder_0_settings
definition = creality_base_extruder_0

[metadata]
type = definition_changes

[values]
machine_nozzle_size = 0.6
`

const preferences = `[general]
version = 7
visible_settings = layer_height;infill_sparse_density

[cura]
active_machine = Ender-3 Pro
`

func qualityPreset(name, qualityType, layerHeight string) string {
	return "[general]\nversion = 4\nname = " + name + "\ndefinition = creality_base\n\n" +
		"[metadata]\ntype = quality\nquality_type = " + qualityType + "\nsetting_version = 22\nglobal_quality = True\n\n" +
		"[values]\nlayer_height = " + layerHeight + "\n"
}

// SeedFixture writes a small but complete slicer tree: a three-level
// creality chain, one machine with user changes and an extruder, vendor and
// generic quality presets, one custom preset and cura.cfg.
func SeedFixture(t testing.TB, cfg *config.Config) {
	t.Helper()

	WriteDefinition(t, cfg, "fdmprinter", fdmprinterDef)
	WriteDefinition(t, cfg, "creality_base", crealityBaseDef)
	WriteDefinition(t, cfg, FixtureLeaf, enderDef)

	WriteMachine(t, cfg, FixtureMachine, FixtureLeaf, FixtureChanges)
	WriteUserProfile(t, cfg, "definition_changes/Ender-3+Pro_settings.inst.cfg", enderChanges)
	WriteUserProfile(t, cfg, "extruders/Ender-3+Pro_extruder_0.extruder.cfg", extruderStack)
	WriteUserProfile(t, cfg, "definition_changes/creality_extruder_0_settings.inst.cfg", extruderChanges)
	WriteUserProfile(t, cfg, "cura.cfg", preferences)

	WriteQuality(t, cfg, "creality/base/base_global_standard.inst.cfg", qualityPreset("Standard Quality", "standard", "0.2"))
	WriteQuality(t, cfg, "creality/base/base_global_draft.inst.cfg", qualityPreset("Draft Quality", "draft", "0.28"))
	WriteQuality(t, cfg, "fdmprinter_global_standard.inst.cfg", qualityPreset("Generic Standard", "standard", "0.15"))

	WriteUserProfile(t, cfg, "quality_changes/my_fast.inst.cfg",
		"[general]\nversion = 4\nname = "+FixtureCustomName+"\ndefinition = creality_ender3pro\n\n[metadata]\ntype = quality_changes\nquality_type = draft\n\n[values]\nspeed_print = 80\n")
}
