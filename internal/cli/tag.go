package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/chaintag"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var proba bool
	var posterior bool

	cmd := &cobra.Command{
		Use:   "tag <modelfile> [words...]",
		Short: "Tag a sentence, or whitespace-tokenized lines from stdin",
		Args:  cobra.MinimumNArgs(1),
		Example: `  chaintag tag model.json the dog runs

  # One sentence per line on stdin
  cat sentences.txt | chaintag tag model.json

  # Posterior decoding and per-position probabilities
  chaintag tag model.json the dog runs --posterior
  chaintag tag model.json the dog runs --proba`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tagger, err := chaintag.Load(args[0])
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "path", args[0])

			if len(args) > 1 {
				return tagSentence(tagger, args[1:], proba, posterior)
			}

			sc := bufio.NewScanner(os.Stdin)
			for sc.Scan() {
				words := strings.Fields(sc.Text())
				if len(words) == 0 {
					continue
				}
				if err := tagSentence(tagger, words, proba, posterior); err != nil {
					return err
				}
			}
			return sc.Err()
		},
	}

	cmd.Flags().BoolVar(&proba, "proba", false, "Print per-position tag probabilities as JSON")
	cmd.Flags().BoolVar(&posterior, "posterior", false, "Decode by position-wise posterior instead of Viterbi")
	return cmd
}

func tagSentence(tagger *chaintag.Tagger, words []string, proba, posterior bool) error {
	if proba {
		marginals, err := tagger.TagMarginals(words)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(marginals, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	var tags []string
	var err error
	if posterior {
		tags, err = tagger.TagPosterior(words)
	} else {
		tags, err = tagger.Tag(words)
	}
	if err != nil {
		return err
	}

	pairs := make([]string, len(words))
	for i := range words {
		pairs[i] = words[i] + "/" + tags[i]
	}
	fmt.Println(strings.Join(pairs, " "))
	return nil
}
