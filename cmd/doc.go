// Package cmd implements the command-line interface for the toolbridge
// process. It provides a small command structure for running the bridge and
// inspecting its configuration.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the bridge
//   - tools: Commands for printing the advertised tool catalog
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See toolbridge -help for a list of all commands.
package cmd
