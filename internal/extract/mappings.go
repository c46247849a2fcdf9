package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// MappingFile is the JSON form of a Request, for invocations where field
// rules live in a file instead of repeated CLI flags.
type MappingFile struct {
	ItemSelector string      `json:"item_selector,omitempty"`
	BaseURL      string      `json:"base_url,omitempty"`
	ResolveURLs  bool        `json:"resolve_urls,omitempty"`
	Fields       []FieldSpec `json:"fields"`
}

// LoadMappingFile loads and validates a JSON mapping file.
func LoadMappingFile(path string) (*MappingFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var mf MappingFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse mappings json: %w", err)
	}

	if len(mf.Fields) == 0 {
		return nil, fmt.Errorf("mapping file has no fields")
	}
	return &mf, nil
}

// Request converts the file into a Request. Selector validation happens at
// Compile time, not here.
func (mf *MappingFile) Request() Request {
	return Request{
		ItemSelector: mf.ItemSelector,
		Fields:       mf.Fields,
		BaseURL:      mf.BaseURL,
		ResolveURLs:  mf.ResolveURLs,
	}
}
