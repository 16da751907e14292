// Package config defines the controller's behavior profile (timing
// constants, pin assignments, polarity) and provides helpers to load,
// validate and save it in YAML format.
//
// The compiled-in defaults match the stock horn box; a profile file only
// needs to list the fields it overrides.
package config
