package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputConfig holds global output settings
type OutputConfig struct {
	JSON  bool
	Quiet bool
}

var (
	outputCfg OutputConfig
	stdout    io.Writer = os.Stdout
	stderr    io.Writer = os.Stderr
)

// PrintResult outputs data based on output config
func PrintResult(data any) {
	if outputCfg.JSON {
		printJSON(data)
		return
	}

	switch v := data.(type) {
	case string:
		_, _ = fmt.Fprintln(stdout, v)
	case []string:
		for _, s := range v {
			_, _ = fmt.Fprintln(stdout, s)
		}
	default:
		// Fall back to JSON for complex types
		printJSON(data)
	}
}

func printJSON(data any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// PrintKeyValues prints aligned "key: value" lines, or an object in JSON mode.
func PrintKeyValues(keys []string, values map[string]string) {
	if outputCfg.JSON {
		printJSON(values)
		return
	}

	width := 0
	for _, k := range keys {
		if len(k) > width {
			width = len(k)
		}
	}
	for _, k := range keys {
		_, _ = fmt.Fprintf(stdout, "%-*s  %s\n", width+1, k+":", values[k])
	}
}

// PrintTable outputs tabular data
func PrintTable(headers []string, rows [][]string) {
	if outputCfg.JSON {
		result := make([]map[string]string, len(rows))
		for i, row := range rows {
			m := make(map[string]string)
			for j, h := range headers {
				if j < len(row) {
					m[h] = row[j]
				}
			}
			result[i] = m
		}
		printJSON(result)
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&b, "%-*s  ", widths[i], h)
	}
	b.WriteString("\n")
	for i := range headers {
		b.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
			}
		}
		b.WriteString("\n")
	}
	_, _ = io.WriteString(stdout, b.String())
}

// PrintInfo prints info message if not quiet
func PrintInfo(format string, args ...any) {
	if !outputCfg.Quiet && !outputCfg.JSON {
		_, _ = fmt.Fprintf(stdout, format, args...)
	}
}

// PrintError prints error to stderr
func PrintError(format string, args ...any) {
	_, _ = fmt.Fprintf(stderr, format, args...)
}

// messageWriter is where chatty progress goes: stdout unless quiet or JSON.
func messageWriter() io.Writer {
	if outputCfg.Quiet || outputCfg.JSON {
		return io.Discard
	}
	return stdout
}
