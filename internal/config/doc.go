// Package config loads, normalizes, and validates curaextract configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CURA_INSTALL_DIR and CURA_USER_DATA_DIR. The Config type centralizes every
// knob the extractor and CLI need: where the slicer install and user-data
// trees live, which manual overrides replace auto-derived values, which
// report sections to produce, and how logging and run history behave.
//
// Overrides are handed to the engine as an immutable value (see
// Config.Overrides) so every resolution step sees the same bundle for the
// whole run.
package config
