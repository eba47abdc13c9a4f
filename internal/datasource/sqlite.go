package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/avandenberg/weave/pkg/model"
)

// SQLiteReader provides read access to a graph SQLite database with
// `profiles` and `relationships` tables.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	// Read-only with a busy timeout so we never block a writer
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAll reads every profile and relationship from the database.
func (r *SQLiteReader) LoadAll() ([]model.Profile, []model.Relationship, error) {
	profiles, err := r.loadProfiles()
	if err != nil {
		return nil, nil, err
	}
	relationships, err := r.loadRelationships()
	if err != nil {
		return nil, nil, err
	}
	return profiles, relationships, nil
}

// loadProfiles scans confidence into an untyped value because the column may
// hold REAL fractions, INTEGER percentages or TEXT; normalization happens in
// model.Build, same as for JSON input.
func (r *SQLiteReader) loadProfiles() ([]model.Profile, error) {
	rows, err := r.db.Query(`
		SELECT id, name, focal, status, confidence
		FROM profiles
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		var focal sql.NullBool
		var status sql.NullString
		var confidence any
		if err := rows.Scan(&p.ID, &p.Name, &focal, &status, &confidence); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Focal = focal.Valid && focal.Bool
		if status.Valid {
			p.Status = status.String
		}
		if confidence != nil {
			p.Confidence = rawValue(confidence)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (r *SQLiteReader) loadRelationships() ([]model.Relationship, error) {
	rows, err := r.db.Query(`
		SELECT source_id, target_id, type, confidence, bidirectional
		FROM relationships
		ORDER BY source_id, target_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var relationships []model.Relationship
	for rows.Next() {
		var rel model.Relationship
		var typ sql.NullString
		var bidi sql.NullBool
		var confidence any
		if err := rows.Scan(&rel.SourceID, &rel.TargetID, &typ, &confidence, &bidi); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		if typ.Valid {
			rel.Type = typ.String
		}
		if confidence != nil {
			rel.Confidence = rawValue(confidence)
		}
		rel.Bidirectional = bidi.Valid && bidi.Bool
		relationships = append(relationships, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return relationships, nil
}

// rawValue unwraps driver byte slices so TEXT confidence columns reach the
// normalizer as strings.
func rawValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// CountProfiles returns the number of profiles in the database.
func (r *SQLiteReader) CountProfiles() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&count)
	return count, err
}
