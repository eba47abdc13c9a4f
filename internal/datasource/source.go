// Package datasource loads raw profile and relationship records from disk.
// It supports a JSON document and a SQLite database; both produce the same
// untyped records, which pkg/model normalizes.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avandenberg/weave/pkg/model"
)

// SourceType identifies the kind of data source.
type SourceType string

const (
	SourceTypeJSON   SourceType = "json"
	SourceTypeSQLite SourceType = "sqlite"
)

// DataSource is a located, stat-ed input file.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s, %d bytes)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.Size)
}

// Detect stats path and classifies it by extension. SQLite databases use
// .db/.sqlite/.sqlite3; everything else is treated as a JSON document.
func Detect(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("source is a directory: %s", path)
	}

	typ := SourceTypeJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		typ = SourceTypeSQLite
	}
	return DataSource{
		Type:    typ,
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Load reads the raw records from a detected source.
func Load(source DataSource) ([]model.Profile, []model.Relationship, error) {
	switch source.Type {
	case SourceTypeJSON:
		return LoadJSON(source.Path)
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, nil, err
		}
		defer reader.Close()
		return reader.LoadAll()
	default:
		return nil, nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
