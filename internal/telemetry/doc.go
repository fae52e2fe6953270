// Package telemetry holds the build metrics, the health and metrics HTTP
// server, and trace export setup.
package telemetry
