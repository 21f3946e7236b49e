// Package cmd implements the command-line interface of the crusher. It
// provides commands to replay scripts against a broker and to examine the
// saved database.
//
// The package is organized into several subpackages:
//
//   - run: Replay a script of STORE, FETCH, REMOVE and CONF commands
//   - inspect: Print the contents of a saved snapshot
//   - demo: Walk through the basic operations with default failure rates
//   - perf: Measure speed and fidelity of the broker operations
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See crusher -help for a list of all commands.
package cmd
