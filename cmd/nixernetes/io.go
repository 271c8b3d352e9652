package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shift/nixernetes-sub005/adapters/kube"
	"github.com/shift/nixernetes-sub005/domain/model"
)

// readManifests concatenates the documents of files into one YAML stream.
// "-" reads standard input; no files also reads standard input.
func readManifests(cmd *cobra.Command, files []string) ([]byte, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	var buf bytes.Buffer
	for i, f := range files {
		var (
			data []byte
			err  error
		)
		if f == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(f)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", f, err)
		}
		if i > 0 {
			buf.WriteString("\n---\n")
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// writeOutput writes data to path, or to standard output for "" and "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// renderResources renders resources as multi-document YAML or a JSON List.
func renderResources(resources []model.Resource, format string) ([]byte, error) {
	switch format {
	case "", "yaml":
		s, err := kube.BuildCleanManifest(resources)
		return []byte(s), err
	case "json":
		b, err := kube.BuildJSONList(resources)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
