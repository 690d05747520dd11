// Package output renders scenario impacts, forecast grids and saved versions
// for the terminal, CSV consumers and JSON clients.
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/rgehrsitz/whatif/internal/domain"
)

// Formatter renders a scenario summary.
type Formatter interface {
	Name() string
	Format(summary *domain.ScenarioSummary) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc struct {
	ID string
	F  func(summary *domain.ScenarioSummary) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(summary *domain.ScenarioSummary) ([]byte, error) {
	return f.F(summary)
}

var formatters = map[string]Formatter{
	"console": ConsoleFormatter{},
	"csv":     CSVFormatter{},
	"json":    JSONFormatter{Pretty: true},
}

var formatAliases = map[string]string{
	"table": "console",
	"text":  "console",
}

// AvailableFormatterNames lists the registered formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted alternative names.
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(formatAliases))
	for name := range formatAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFormatterByName resolves a name or alias; nil when unknown.
func GetFormatterByName(name string) Formatter {
	if target, ok := formatAliases[name]; ok {
		name = target
	}
	return formatters[name]
}

// WriteFormatted formats summary with f and writes the result to w.
func WriteFormatted(w io.Writer, f Formatter, summary *domain.ScenarioSummary) error {
	if summary == nil {
		return fmt.Errorf("%s formatter: summary is required", f.Name())
	}
	data, err := f.Format(summary)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s output: %w", f.Name(), err)
	}
	return nil
}
