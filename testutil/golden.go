// Package testutil provides golden-file comparison for tests that assert on
// large structured output (optimizer Metrics, inferred-type maps, diagnostic
// reports) where inlining the expected value as a Go literal would be
// unreadable.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// UpdateGoldens is true when tests should overwrite golden files instead of
// comparing against them: UPDATE_GOLDENS=1 go test ./...
var UpdateGoldens = os.Getenv("UPDATE_GOLDENS") != ""

// goldenEnvelope wraps the compared value with the platform it was recorded
// on, so a golden file mismatch across Go versions or OSes is self-explaining.
type goldenEnvelope struct {
	RecordedWith string          `json:"recorded_with"`
	Value        json.RawMessage `json:"value"`
}

func envelopeFor(t *testing.T, value interface{}) ([]byte, error) {
	t.Helper()
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	env := goldenEnvelope{
		RecordedWith: runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH,
		Value:        raw,
	}
	return json.MarshalIndent(env, "", "  ")
}

// Path returns testdata/<group>/<name>.golden.json, the convention every
// golden helper in this file uses.
func Path(group, name string) string {
	return filepath.Join("testdata", group, name+".golden.json")
}

// AssertGolden compares value against the golden file for group/name,
// marshaling value to indented JSON first. With UpdateGoldens set it writes
// the file instead of comparing.
func AssertGolden(t *testing.T, group, name string, value interface{}) {
	t.Helper()

	path := Path(group, name)
	actual, err := envelopeFor(t, value)
	if err != nil {
		t.Fatalf("marshaling %s/%s: %v", group, name, err)
	}

	if UpdateGoldens {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating golden directory for %s: %v", path, err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			t.Fatalf("writing golden file %s: %v", path, err)
		}
		t.Logf("wrote golden file %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file %s does not exist (run with UPDATE_GOLDENS=1 to create it)", path)
		}
		t.Fatalf("reading golden file %s: %v", path, err)
	}

	if diff := diffJSON(expected, actual); diff != "" {
		t.Errorf("golden mismatch for %s/%s (-want +got):\n%s", group, name, diff)
	}
}

// diffJSON compares two JSON documents by structural value rather than byte
// content, so formatting differences (key order, whitespace) never cause a
// spurious mismatch, and reports a readable diff when they do differ.
func diffJSON(a, b []byte) string {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return err.Error()
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return err.Error()
	}
	return cmp.Diff(av, bv)
}
