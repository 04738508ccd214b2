package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat accepts text, json or yaml in any case.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", NewCLIError(ExitError, fmt.Sprintf("invalid output format %q (must be text, json or yaml)", s))
	}
}

// Formatter interface defines methods for formatting command output
type Formatter interface {
	PrintSuccess(message string) error
	PrintError(message string) error
	PrintTable(headers []string, rows [][]string) error
	// PrintData renders a structured value.
	PrintData(data any) error
}

// NewFormatter returns the formatter for format writing to w.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if w == nil {
		w = os.Stdout
	}
	switch format {
	case FormatJSON:
		return &JSONFormatter{writer: w}
	case FormatYAML:
		return &YAMLFormatter{writer: w}
	default:
		return &TextFormatter{writer: w}
	}
}

// TextFormatter implements Formatter for human-readable text output
type TextFormatter struct {
	writer io.Writer
}

// PrintSuccess prints a success message with a checkmark prefix
func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := fmt.Fprintf(f.writer, "✓ %s\n", message)
	return err
}

// PrintError prints an error message with an X prefix
func (f *TextFormatter) PrintError(message string) error {
	_, err := fmt.Fprintf(f.writer, "✗ %s\n", message)
	return err
}

// PrintTable prints a table using text/tabwriter for aligned columns
func (f *TextFormatter) PrintTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	headerLine := make([]string, len(headers))
	separator := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
		separator[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headerLine, "\t")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, strings.Join(separator, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// PrintData prints indented JSON, which reads well enough for nested rows.
func (f *TextFormatter) PrintData(data any) error {
	return writeJSON(f.writer, data)
}

// JSONFormatter implements Formatter for structured JSON output
type JSONFormatter struct {
	writer io.Writer
}

func (f *JSONFormatter) PrintSuccess(message string) error {
	return f.PrintData(map[string]any{"status": "success", "message": message})
}

func (f *JSONFormatter) PrintError(message string) error {
	return f.PrintData(map[string]any{"status": "error", "message": message})
}

// PrintTable prints rows as an array of header-keyed objects.
func (f *JSONFormatter) PrintTable(headers []string, rows [][]string) error {
	return f.PrintData(tableRecords(headers, rows))
}

func (f *JSONFormatter) PrintData(data any) error {
	return writeJSON(f.writer, data)
}

// YAMLFormatter renders the same documents as JSONFormatter in YAML.
type YAMLFormatter struct {
	writer io.Writer
}

func (f *YAMLFormatter) PrintSuccess(message string) error {
	return f.PrintData(map[string]any{"status": "success", "message": message})
}

func (f *YAMLFormatter) PrintError(message string) error {
	return f.PrintData(map[string]any{"status": "error", "message": message})
}

func (f *YAMLFormatter) PrintTable(headers []string, rows [][]string) error {
	return f.PrintData(tableRecords(headers, rows))
}

// PrintData goes through JSON first so field names and omitempty match the
// json tags the result types already carry.
func (f *YAMLFormatter) PrintData(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func tableRecords(headers []string, rows [][]string) []map[string]string {
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rowMap := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rowMap[header] = row[i]
			} else {
				rowMap[header] = ""
			}
		}
		data = append(data, rowMap)
	}
	return data
}
