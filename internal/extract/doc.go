// Package extract sequences chain resolution, manufacturer classification,
// settings merging, startup-sequence lookup and quality discovery for one
// machine, and assembles the full extraction report around that core.
//
// ResolveMachine is the unit of work: it returns the chain, manufacturer tag,
// effective settings, startup sequences, quality directories and diagnostics
// together, and only once every step has completed. Extract builds on it and
// adds the preference, instance, extruder and quality sections. Only
// config.ErrMisconfigured (raised by New) and an unknown machine name stop a
// resolution; every other problem becomes a diagnostic.
package extract
