package agent

import "errors"

var (
	// ErrUnknownField is returned when a field name does not exist on AgentConfig
	ErrUnknownField = errors.New("unknown field")
	// ErrUnsupportedFormat is returned for config files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)
