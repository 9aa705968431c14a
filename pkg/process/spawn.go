package process

import (
	"os"
	"os/exec"
	"syscall"
)

// SpawnSpec describes a detached worker process.
type SpawnSpec struct {
	// Name is the binary to execute, resolved through PATH.
	Name string

	// Args are passed verbatim, without the binary name.
	Args []string

	// Dir is the working directory for the child. Empty means inherit.
	Dir string

	// LogPath, when set, receives the child's stdout and stderr. The file is
	// created if missing and appended to otherwise.
	LogPath string

	// Env entries are appended to the current environment.
	Env []string
}

// Spawn starts the described worker as a detached process in its own session.
// Standard input is disconnected, so the child cannot block on a closed
// terminal. The call returns the child's pid without waiting for it.
func Spawn(spec SpawnSpec) (int, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir

	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	if spec.LogPath != "" {
		f, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		// The child duplicates the descriptor on Start; the parent's copy
		// can be closed as soon as Spawn returns.
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	// A new session detaches the worker from the hook's terminal and makes
	// the pid double as a process-group id for Terminate.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid

	// Reap the child if the parent happens to outlive it.
	go cmd.Wait()

	return pid, nil
}
