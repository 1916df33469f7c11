package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/collegeapi/internal/domain/college"
)

func newNormalizeCommand() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize a College Scorecard response offline",
		Long: `Read a College Scorecard response from a file, or stdin when no file
is given, and print the records the search endpoint would return.

The input is either the provider envelope {"metadata":...,"results":[...]}
or a bare array of records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return runNormalize(in, cmd.OutOrStdout(), cmd.ErrOrStderr(), compact)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	return cmd
}

type normalizeOutput struct {
	Metadata map[string]any              `json:"metadata"`
	Results  []college.NormalizedCollege `json:"results"`
}

func runNormalize(in io.Reader, out, errOut io.Writer, compact bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	recs, meta, err := parseRecords(data)
	if err != nil {
		return err
	}

	results, dropped := college.NormalizeAll(recs)
	if dropped > 0 {
		fmt.Fprintf(errOut, "dropped %d record(s) without a school name\n", dropped)
	}

	enc := json.NewEncoder(out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(normalizeOutput{Metadata: meta, Results: results})
}

func parseRecords(data []byte) ([]college.ExternalRecord, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, fmt.Errorf("decode input: %w", err)
	}

	meta := map[string]any{}
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case map[string]any:
		if m, ok := x["metadata"].(map[string]any); ok {
			meta = m
		}
		list, ok := x["results"].([]any)
		if !ok {
			return nil, nil, errors.New("input object has no results array")
		}
		items = list
	default:
		return nil, nil, errors.New("input must be an object or an array")
	}

	recs := make([]college.ExternalRecord, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			recs = append(recs, college.ExternalRecord(obj))
		}
	}
	return recs, meta, nil
}
