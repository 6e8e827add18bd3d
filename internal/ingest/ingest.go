// Package ingest discovers candidate documents on disk: a one-shot directory
// walk with content hashing and a recursive fsnotify watcher for inboxes.
package ingest

// Candidate is one file picked up for processing.
type Candidate struct {
	Path     string
	MIMEType string
	HashHex  string
	Size     int64
	// DuplicateOf is the first path with the same content, when this file
	// was dropped as a duplicate.
	DuplicateOf string
	Err         string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
