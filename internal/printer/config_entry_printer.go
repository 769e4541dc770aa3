package printer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mozilla-ai/bookstore/internal/cmd/output"
)

var _ output.Printer[ConfigEntry] = (*ConfigEntryPrinter)(nil)

// ConfigEntry is a single configuration setting addressed by its dotted key.
type ConfigEntry struct {
	Key   string `json:"key"   yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// ConfigEntries flattens a configuration value into entries sorted by key.
// Nested maps contribute one entry per leaf, with their keys joined to prefix using '.'.
func ConfigEntries(prefix string, value any) []ConfigEntry {
	var entries []ConfigEntry
	flatten(prefix, value, &entries)

	slices.SortFunc(entries, func(a, b ConfigEntry) int {
		return strings.Compare(a.Key, b.Key)
	})

	return entries
}

func flatten(prefix string, value any, entries *[]ConfigEntry) {
	m, ok := value.(map[string]any)
	if !ok {
		*entries = append(*entries, ConfigEntry{Key: prefix, Value: value})
		return
	}

	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flatten(key, v, entries)
	}
}

// ConfigEntryPrinter handles text output for configuration settings, one 'key = value' line each.
type ConfigEntryPrinter struct {
	headerFunc output.WriteFunc[ConfigEntry]
	footerFunc output.WriteFunc[ConfigEntry]
}

func (p *ConfigEntryPrinter) Header(w io.Writer, count int) {
	if p.headerFunc != nil {
		p.headerFunc(w, count)
	}
}

func (p *ConfigEntryPrinter) SetHeader(fn output.WriteFunc[ConfigEntry]) {
	p.headerFunc = fn
}

func (p *ConfigEntryPrinter) Item(w io.Writer, entry ConfigEntry) error {
	_, err := fmt.Fprintf(w, "%s = %s\n", entry.Key, formatValue(entry.Value))
	return err
}

func (p *ConfigEntryPrinter) Footer(w io.Writer, count int) {
	if p.footerFunc != nil {
		p.footerFunc(w, count)
	}
}

func (p *ConfigEntryPrinter) SetFooter(fn output.WriteFunc[ConfigEntry]) {
	p.footerFunc = fn
}

// formatValue renders v the way it would be written in the TOML config file.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		return fmt.Sprintf("%q", val.String())
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
