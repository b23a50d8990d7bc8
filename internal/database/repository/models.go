package repository

import "time"

// VersionRecord is one observed version of a project.
type VersionRecord struct {
	ID         string
	ProjectID  string
	Version    int
	Source     string // "generate" or "rebuild"
	ObservedAt time.Time
}

const (
	SourceGenerate = "generate"
	SourceRebuild  = "rebuild"
)
