package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "name": "acme/widget",
  "description": "A widget",
  "license": ["MIT"],
  "extra": {
    "release": {"channel": "stable", "build": 7}
  },
  "require": {
    "php": "^8.2",
    "ixnode/php-exception": "^0.1.19"
  }
}`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAndString(t *testing.T) {
	t.Parallel()

	doc, err := Load(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	tcs := map[string]struct {
		keys []string
		want string
		err  error
	}{
		"name":           {keys: []string{"name"}, want: "acme/widget"},
		"description":    {keys: []string{"description"}, want: "A widget"},
		"nested":         {keys: []string{"extra", "release", "channel"}, want: "stable"},
		"missing":        {keys: []string{"homepage"}, err: ErrKeyNotFound},
		"missing nested": {keys: []string{"extra", "release", "date"}, err: ErrKeyNotFound},
		"no keys":        {keys: nil, err: ErrKeyNotFound},
		"array value":    {keys: []string{"license"}, err: ErrTypeMismatch},
		"number value":   {keys: []string{"extra", "release", "build"}, err: ErrTypeMismatch},
		"object value":   {keys: []string{"extra"}, err: ErrTypeMismatch},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := doc.String(tc.keys...)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestKeyErrorNamesKeyPath(t *testing.T) {
	t.Parallel()

	doc, err := Load(writeManifest(t, sampleManifest))
	require.NoError(t, err)

	_, err = doc.String("extra", "release", "date")
	require.ErrorContains(t, err, "extra.release.date")

	_, err = doc.String("license")
	require.ErrorContains(t, err, "array")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFilename)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorContains(t, err, path)
}

func TestLoadInvalidDocument(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"syntax":      `{"name": `,
		"array root":  `["acme/widget"]`,
		"string root": `"acme/widget"`,
		"empty":       ``,
	}
	for name, contents := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeManifest(t, contents))
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestRequires(t *testing.T) {
	t.Parallel()

	doc, err := Parse("inline", []byte(sampleManifest))
	require.NoError(t, err)

	reqs, err := doc.Requires()
	require.NoError(t, err)
	require.Equal(t, []Requirement{
		{Package: "ixnode/php-exception", Constraint: "^0.1.19"},
		{Package: "php", Constraint: "^8.2"},
	}, reqs)
}

func TestRequiresAbsentSection(t *testing.T) {
	t.Parallel()

	doc, err := Parse("inline", []byte(`{"name": "acme/widget"}`))
	require.NoError(t, err)

	reqs, err := doc.Requires()
	require.NoError(t, err)
	require.Empty(t, reqs)
}

func TestRequiresWrongShape(t *testing.T) {
	t.Parallel()

	doc, err := Parse("inline", []byte(`{"require": ["php"]}`))
	require.NoError(t, err)

	_, err = doc.Requires()
	require.ErrorIs(t, err, ErrTypeMismatch)
}
