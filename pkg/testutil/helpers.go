// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/stretchr/testify/require"
)

// Series builds a record.Series from numbers; a nil argument becomes a null
// element. Any other type panics.
func Series(vals ...interface{}) record.Series {
	out := make(record.Series, len(vals))
	for i, v := range vals {
		switch n := v.(type) {
		case nil:
		case int:
			f := float64(n)
			out[i] = &f
		case float64:
			f := n
			out[i] = &f
		default:
			panic(fmt.Sprintf("testutil.Series: unsupported element %T", v))
		}
	}
	return out
}

// Values flattens a series into comparable values, with nil for nulls.
func Values(s record.Series) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Labels builds record.Labels; an empty string becomes a null label.
func Labels(vals ...string) record.Labels {
	out := make(record.Labels, len(vals))
	for i := range vals {
		if vals[i] != "" {
			v := vals[i]
			out[i] = &v
		}
	}
	return out
}

// FindNote returns the first note containing substr.
func FindNote(notes []string, substr string) (string, bool) {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return n, true
		}
	}
	return "", false
}

// FixturePath returns the absolute path of a file under test/fixtures.
func FixturePath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "test", "fixtures", name)
}

// LoadFixture reads a file under test/fixtures, failing the test on error.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(FixturePath(name))
	require.NoError(t, err, "reading fixture %s", name)
	return data
}
