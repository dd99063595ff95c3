package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/chaintag"
	"github.com/happyhackingspace/chaintag/internal/config"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var dataFolder string
	var configPath string

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Train a tagger on a folder of tagged sentences",
		Args:  cobra.ExactArgs(1),
		Example: `  chaintag train model.json --data-folder data
  chaintag train model.json --config chaintag.yaml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			slog.Info("Training tagger", "data-folder", dataFolder, "output", modelPath)
			start := time.Now()
			tagger, err := chaintag.Train(dataFolder, &chaintag.TrainConfig{Config: cfg})
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))
			if err := tagger.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFolder, "data-folder", "data", "Path to training data folder")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	return cmd
}

// loadConfig resolves the effective configuration; an empty path means
// the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
