// Package config defines the settings used by the scheduler binaries and
// provides helpers to load, validate and save them in YAML format.
//
// A missing settings file is not an error for the scheduler: LoadOrDefault
// falls back to Default, which runs the console only.
package config
