package compression

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("GZIP")
	require.NoError(t, err)
	assert.Equal(t, Gzip, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Auto, a)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		algo Algorithm
		path string
		want Algorithm
	}{
		{Auto, "out.csv.gz", Gzip},
		{Auto, "out.csv.zst", Zstd},
		{Auto, "out.csv.s2", S2},
		{Auto, "out.csv.lz4", LZ4},
		{Auto, "out.csv", None},
		{Gzip, "out.csv", Gzip}, // explicit algorithm wins
		{None, "out.csv.gz", None},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.algo, tt.path), "algo=%s path=%s", tt.algo, tt.path)
	}
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	payload := strings.Repeat("OrderID,OrderDate,Quantity\n1001,2024-03-07,12500\n", 200)

	for _, algo := range []Algorithm{None, Gzip, Zstd, S2, LZ4} {
		for _, level := range []Level{LevelFastest, LevelDefault, LevelBest} {
			t.Run(string(algo)+"/"+string(level), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, algo, level)
				require.NoError(t, err)
				_, err = io.WriteString(w, payload)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				r, err := NewReader(&buf, algo)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())

				assert.Equal(t, payload, string(got))
			})
		}
	}
}

func TestFileRoundTripWithAutoDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv.gz")
	payload := "a,b\n1,2\n"

	w, err := CreateOutput(path, Auto, LevelDefault)
	require.NoError(t, err)
	_, err = io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// The file on disk is really gzip, not plain text.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])

	r, err := OpenInput(path, Auto)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, payload, string(got))
}
