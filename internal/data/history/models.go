package history

import "time"

const SchemaVersion = 1

// Snapshot summarizes one manifest run.
type Snapshot struct {
	RunID            string
	ProjectKey       string
	SchemaVersion    int
	Timestamp        time.Time
	ToolVersion      string
	FileCount        int
	DeclarationCount int
	ModuleCount      int
	EdgeCount        int
	UnresolvedCount  int
	FixedNameCount   int
	OutputPath       string
	Duration         time.Duration
}
