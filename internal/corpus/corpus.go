// Package corpus reads tagged-sentence training data from a data folder.
//
// The format is one token per line, word and tag separated by whitespace,
// with a blank line between sentences. Lines starting with # are comments.
// Every .txt file in the folder contributes sentences; IDs are stable
// "<file>:<ordinal>" strings so errors and fold assignments are
// reproducible.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/happyhackingspace/chaintag/crf"
)

// ReadDir loads every .txt file in the folder, in name order.
func ReadDir(folder string) ([]crf.TaggedSequence, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read corpus folder: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var corpus []crf.TaggedSequence
	for _, name := range names {
		sentences, err := ReadFile(filepath.Join(folder, name))
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, sentences...)
	}
	slog.Debug("corpus loaded", "folder", folder, "files", len(names), "sentences", len(corpus))
	return corpus, nil
}

// ReadFile loads one sentence file.
func ReadFile(path string) ([]crf.TaggedSequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(file, filepath.Base(path))
}

// Read parses sentences from r, stamping IDs with the given source name.
func Read(r io.Reader, source string) ([]crf.TaggedSequence, error) {
	var corpus []crf.TaggedSequence
	var words, labels []string
	lineNo := 0
	flush := func() {
		if len(words) == 0 {
			return
		}
		corpus = append(corpus, crf.TaggedSequence{
			Words:  words,
			Labels: labels,
			ID:     fmt.Sprintf("%s:%d", source, len(corpus)),
		})
		words, labels = nil, nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "" {
			flush()
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: token %q has no tag", source, lineNo, line)
		}
		words = append(words, fields[0])
		labels = append(labels, fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", source, err)
	}
	flush()
	return corpus, nil
}

// LabelSet returns the distinct labels of the corpus in first-seen order.
func LabelSet(corpus []crf.TaggedSequence) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, d := range corpus {
		for _, l := range d.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	return labels
}
