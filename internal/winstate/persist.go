package winstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion is the current state-document version.
const SchemaVersion = 1

// document is the on-disk window-state file: a version stamp plus a flat
// map keyed by window role.
type document struct {
	Version int                 `json:"version"`
	Windows map[string]Geometry `json:"windows"`
}

func newDocument() document {
	return document{Version: SchemaVersion, Windows: map[string]Geometry{}}
}

// migrateDocument upgrades raw file contents to the current schema. The
// returned flag reports whether an upgrade happened; migrating an
// already-current document is a no-op and marshals byte-identically.
//
// v0 (legacy) documents are a bare role-keyed map with no version stamp.
func migrateDocument(data []byte) (document, bool, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && doc.Version == SchemaVersion && doc.Windows != nil {
		return doc, false, nil
	}

	var versionOnly struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &versionOnly); err != nil {
		return document{}, false, fmt.Errorf("failed to parse state document: %w", err)
	}
	if versionOnly.Version > SchemaVersion {
		return document{}, false, fmt.Errorf("state document version %d is newer than supported version %d", versionOnly.Version, SchemaVersion)
	}
	if versionOnly.Version == SchemaVersion {
		// Current version but missing windows map.
		if doc.Windows == nil {
			doc.Windows = map[string]Geometry{}
		}
		doc.Version = SchemaVersion
		return doc, true, nil
	}

	// v0: bare role-keyed map.
	var legacy map[string]Geometry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return document{}, false, fmt.Errorf("failed to parse legacy state document: %w", err)
	}
	out := newDocument()
	for role, g := range legacy {
		out.Windows[role] = g
	}
	return out, true, nil
}

// loadDocument reads and migrates the state file. A missing file is the
// expected first-run case and yields an empty document; a corrupt file
// yields an error the caller absorbs by falling back to defaults.
func loadDocument(path string) (document, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newDocument(), false, nil
		}
		return newDocument(), false, fmt.Errorf("failed to read state file: %w", err)
	}
	doc, migrated, err := migrateDocument(data)
	if err != nil {
		return newDocument(), false, err
	}
	return doc, migrated, nil
}

// saveDocument writes the whole document atomically (temp file + rename)
// so readers never observe a partial write.
func saveDocument(path string, doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".window-state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
