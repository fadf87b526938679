package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/ragchat/ragchat/memory"
	"github.com/spf13/cobra"
)

var ingestExts []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Chunk, embed and store files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestExts, "ext", []string{".txt", ".md"}, "File extensions to ingest when walking directories")
}

func runIngest(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(args, ingestExts)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no matching files in %s", strings.Join(args, ", "))
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.ingester.Ingest(cmd.Context(), docs...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d documents into %d nodes\n", len(docs), n)
	return nil
}

// readDocuments loads files named directly and walks directories for files with a matching extension.
// The absolute path is the document id, so re-ingesting a file replaces it.
func readDocuments(paths, exts []string) ([]memory.Document, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}

	var docs []memory.Document
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, memory.Document{
			ID:       abs,
			Text:     string(data),
			Metadata: map[string]string{"source": path},
		})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !want[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}
