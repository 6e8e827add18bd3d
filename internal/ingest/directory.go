package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

// WalkDirectory walks root in lexical order and returns every supported file,
// hashed. Files whose content was already seen come back with DuplicateOf set
// and are counted as deduplicated; unreadable files carry Err.
func WalkDirectory(root string, skipHidden bool) ([]Candidate, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		results []Candidate
		stats   DirStats
		seen    = map[string]string{}
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, Candidate{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		sum, size, err := HashFile(path)
		if err != nil {
			results = append(results, Candidate{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		c := Candidate{Path: path, MIMEType: constants.MIMEFromExt(ext), HashHex: sum, Size: size}
		if first, ok := seen[sum]; ok {
			c.DuplicateOf = first
			stats.Deduplicated++
		} else {
			seen[sum] = path
			stats.Succeeded++
		}
		results = append(results, c)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
