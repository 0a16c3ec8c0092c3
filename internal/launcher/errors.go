package launcher

import "fmt"

// InvalidInputError is returned when the install path or the payload file is
// empty, or when the argument mode is not recognised.
type InvalidInputError struct {
	Field string
	Value string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "arg_mode" {
		return fmt.Sprintf("Error: Unknown argument mode %q.", e.Value)
	}
	return "Error: Game path or file path is empty."
}

// PathNotFoundError is returned when the executable does not exist.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("Error: VRChat.exe not found at %s", e.Path)
}

// LaunchFailedError reports the first instance (1-based) whose spawn failed.
// Instances before it were started and keep running.
type LaunchFailedError struct {
	Index uint32
	Err   error
}

func (e *LaunchFailedError) Error() string {
	return fmt.Sprintf("Error: Failed to launch VRChat instance %d", e.Index)
}

func (e *LaunchFailedError) Unwrap() error { return e.Err }

// Launched is the number of instances started before the failure.
func (e *LaunchFailedError) Launched() uint32 {
	if e.Index == 0 {
		return 0
	}
	return e.Index - 1
}
