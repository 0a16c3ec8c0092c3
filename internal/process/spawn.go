package process

import (
	"os/exec"
)

// Spawner starts a detached process and returns its PID without waiting.
type Spawner interface {
	Spawn(path string, args []string) (int, error)
}

// SpawnFunc adapts a function to Spawner.
type SpawnFunc func(path string, args []string) (int, error)

func (f SpawnFunc) Spawn(path string, args []string) (int, error) { return f(path, args) }

// ExecSpawner starts processes with os/exec. Standard streams are left
// unconnected. When Reap is set, a background goroutine collects the exit
// status so long-running callers do not accumulate zombies; otherwise the
// process handle is released immediately.
type ExecSpawner struct {
	Reap bool
}

func (s ExecSpawner) Spawn(path string, args []string) (int, error) {
	// #nosec G204 -- path is the user-confirmed executable
	cmd := exec.Command(path, args...)
	configureSysProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	if s.Reap {
		go func() { _ = cmd.Wait() }()
	} else {
		_ = cmd.Process.Release()
	}
	return pid, nil
}
