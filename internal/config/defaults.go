package config

const (
	defaultStateDir         = "~/.local/share/curaextract"
	defaultHistoryFile      = "history.db"
	defaultStartSequenceKey = "machine_start_gcode"
	defaultEndSequenceKey   = "machine_end_gcode"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Manual: OverrideSettings{
			StartSequenceKey: defaultStartSequenceKey,
			EndSequenceKey:   defaultEndSequenceKey,
		},
		Extraction: Extraction{
			Preferences:      true,
			MachineSettings:  true,
			StartupSequences: true,
			Extruders:        true,
			QualityBuiltin:   true,
			QualityCustom:    true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
