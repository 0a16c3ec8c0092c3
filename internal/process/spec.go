package process

import (
	"fmt"
	"strings"
)

// urlArgPrefix opens the payload as a hidden, locally built world.
const urlArgPrefix = "--url=create?hidden=true&name=BuildAndRun&url=file:///"

// ArgMode selects how the instance argument is handed to the executable.
type ArgMode string

const (
	// ArgModeLegacy splits the argument string on whitespace, so a payload
	// path containing spaces becomes several argv entries.
	ArgModeLegacy ArgMode = "legacy"
	// ArgModeExact passes the argument as a single argv entry.
	ArgModeExact ArgMode = "exact"
)

// ParseArgMode accepts "", "legacy" and "exact" (case-insensitive).
func ParseArgMode(s string) (ArgMode, error) {
	switch ArgMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ArgModeLegacy:
		return ArgModeLegacy, nil
	case ArgModeExact:
		return ArgModeExact, nil
	default:
		return "", fmt.Errorf("unknown arg mode %q (want legacy or exact)", s)
	}
}

// Request describes a launch of Count instances of the executable at
// InstallPath, each opening PayloadFile.
type Request struct {
	InstallPath string  `json:"game_path"`
	PayloadFile string  `json:"file"`
	Count       uint32  `json:"count"`
	ArgMode     ArgMode `json:"arg_mode,omitempty"`
}

// InstanceArg returns the unsplit argument string for payload.
func InstanceArg(payload string) string {
	return urlArgPrefix + payload
}

// BuildArgs constructs the argv (excluding the executable) for one instance.
func BuildArgs(payload string, mode ArgMode) []string {
	arg := InstanceArg(payload)
	if mode == ArgModeExact {
		return []string{arg}
	}
	return strings.Fields(arg)
}
