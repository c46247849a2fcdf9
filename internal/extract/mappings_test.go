package extract

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadMappingFile_HappyPath verifies a mapping file parses and converts
// into a Request with the same field order.
func TestLoadMappingFile_HappyPath(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	p := filepath.Join(tmp, "m.json")

	err := os.WriteFile(p, []byte(`{
		"item_selector": ".product_pod",
		"base_url": "https://books.toscrape.com",
		"resolve_urls": true,
		"fields": [
			{"name":"title","selector":"h3 a","extract":"attr","attr":"title"},
			{"name":"price","selector":".price_color","extract":"text"}
		]
	}`), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	mf, err := LoadMappingFile(p)
	if err != nil {
		t.Fatalf("LoadMappingFile: %v", err)
	}

	req := mf.Request()
	if req.ItemSelector != ".product_pod" || !req.ResolveURLs {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Fields) != 2 || req.Fields[0].Name != "title" || req.Fields[1].Name != "price" {
		t.Fatalf("unexpected fields: %+v", req.Fields)
	}
}

// TestLoadMappingFile_NoFields verifies empty mapping files are rejected.
// This protects downstream code from silent "no-op" extractions.
func TestLoadMappingFile_NoFields(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	p := filepath.Join(tmp, "m.json")

	if err := os.WriteFile(p, []byte(`{"fields":[]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadMappingFile(p); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
