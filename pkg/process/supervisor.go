package process

// Supervisor abstracts process control so callers can be tested with fakes.
type Supervisor interface {
	// Spawn starts a detached worker and returns its pid.
	Spawn(spec SpawnSpec) (int, error)

	// IsAlive reports whether the pid refers to a live process.
	IsAlive(pid int) bool

	// Terminate delivers SIGTERM to the worker's process group.
	Terminate(pid int) error
}

// NewSupervisor returns the OS-backed Supervisor.
func NewSupervisor() Supervisor {
	return &osSupervisor{}
}

type osSupervisor struct{}

func (s *osSupervisor) Spawn(spec SpawnSpec) (int, error) { return Spawn(spec) }
func (s *osSupervisor) IsAlive(pid int) bool              { return IsProcessAlive(pid) }
func (s *osSupervisor) Terminate(pid int) error           { return Terminate(pid) }
