// Package app contains the application logic behind the mortar commands.
// It wires workspace settings, build file loading, planning, scheduling
// and telemetry together, decoupled from the command-line surface.
package app
