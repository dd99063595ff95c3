package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trainer:
  c1: 0.5
  max_iterations: 10
featurizer:
  gazetteers:
    - name: city
      path: cities.txt
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Trainer.C1)
	assert.Equal(t, 10, cfg.Trainer.MaxIterations)
	// Untouched fields keep defaults.
	assert.Equal(t, 0.01, cfg.Trainer.C2)
	assert.Equal(t, "<S>", cfg.StartSymbol)
	assert.Equal(t, 3, cfg.Featurizer.AffixLen)
	require.Len(t, cfg.Featurizer.Gazetteers, 1)
	assert.Equal(t, "city", cfg.Featurizer.Gazetteers[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyStartSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("start_symbol: \"\"\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
