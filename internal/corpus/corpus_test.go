package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# sample corpus
the	DT
dog	NN

runs	VB
`

func TestRead(t *testing.T) {
	corpus, err := Read(strings.NewReader(sample), "sample.txt")
	require.NoError(t, err)
	require.Len(t, corpus, 2)

	assert.Equal(t, []string{"the", "dog"}, corpus[0].Words)
	assert.Equal(t, []string{"DT", "NN"}, corpus[0].Labels)
	assert.Equal(t, "sample.txt:0", corpus[0].ID)
	assert.Equal(t, []string{"runs"}, corpus[1].Words)
	assert.Equal(t, "sample.txt:1", corpus[1].ID)
}

func TestReadMissingTag(t *testing.T) {
	_, err := Read(strings.NewReader("the\n"), "bad.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt:1")
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x\tA\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("y\tB\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0644))

	corpus, err := ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, corpus, 2)
	// Files contribute in name order.
	assert.Equal(t, "a.txt:0", corpus[0].ID)
	assert.Equal(t, "b.txt:0", corpus[1].ID)

	_, err = ReadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLabelSet(t *testing.T) {
	corpus, err := Read(strings.NewReader(sample), "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"DT", "NN", "VB"}, LabelSet(corpus))
}
