package datasource

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/avandenberg/weave/pkg/model"
)

// Document is the JSON input shape: a single object holding both record
// arrays. Unknown fields are ignored so exports from richer tools load
// without preprocessing.
type Document struct {
	Profiles      []model.Profile      `json:"profiles"`
	Relationships []model.Relationship `json:"relationships"`
}

// LoadJSON reads a graph document from path.
func LoadJSON(path string) ([]model.Profile, []model.Relationship, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read document: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes a graph document from raw bytes.
func ParseJSON(data []byte) ([]model.Profile, []model.Relationship, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}
	if len(doc.Profiles) == 0 {
		return nil, nil, fmt.Errorf("document has no profiles")
	}
	return doc.Profiles, doc.Relationships, nil
}
