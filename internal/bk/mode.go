package bk

import "fmt"

// Mode selects which pipeline an invocation runs.
type Mode int

const (
	ModeBackup Mode = iota
	ModeRestore
	ModeStatus
)

func (m Mode) String() string {
	switch m {
	case ModeBackup:
		return "Backup"
	case ModeRestore:
		return "Restore"
	case ModeStatus:
		return "Status"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Mutating reports whether the mode writes archives or restore targets.
func (m Mode) Mutating() bool {
	return m == ModeBackup || m == ModeRestore
}
