package model

import (
	"fmt"
	"strings"
)

// ConfigError reports a missing or invalid parameter or timeseries for a
// block instance. It is raised at instantiation, before any solve attempt.
type ConfigError struct {
	Block  string // block identity, e.g. "chp_1"
	Field  string // offending parameter or series name
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error in block %q: %s", e.Block, e.Reason)
	}
	return fmt.Sprintf("configuration error in block %q, field %q: %s", e.Block, e.Field, e.Reason)
}

// TopologyError reports a malformed arc: a carrier mismatch, a duplicate
// input binding, a wrong port direction, or a reference to a port or block
// that does not exist.
type TopologyError struct {
	From   string // "block.port" of the source end, if known
	To     string // "block.port" of the target end, if known
	Reason string
}

func (e *TopologyError) Error() string {
	if e.From == "" && e.To == "" {
		return fmt.Sprintf("topology error: %s", e.Reason)
	}
	return fmt.Sprintf("topology error on arc %s -> %s: %s", e.From, e.To, e.Reason)
}

// ValidationError reports the full set of non-boundary ports left
// unconnected after wiring, so a user can fix the configuration in one pass.
type ValidationError struct {
	Ports []string // "block.port" for every violating port
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %d unconnected non-boundary port(s): %s",
		len(e.Ports), strings.Join(e.Ports, ", "))
}
