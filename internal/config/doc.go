// Package config loads the workspace settings file, mortar.yaml.
//
// The file is optional. Missing keys take the values of Default, and
// command-line flags are applied on top by the caller. Every loaded Config
// is checked with struct tags understood by go-playground/validator before
// it is returned.
package config
