// Package cli is the command-line surface of mortar. It parses arguments
// into app settings, dispatches subcommands and turns failures into
// process exit codes.
package cli
