package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gregLibert/uimtool/internal/config"
)

type describer interface {
	Describe() string
}

// exporter gives the value to encode in json/yaml when it differs from the
// result itself.
type exporter interface {
	Export() any
}

func render(w io.Writer, format string, v describer) error {
	var data any = v
	if e, ok := v.(exporter); ok {
		data = e.Export()
	}

	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)

	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	}

	_, err := fmt.Fprintln(w, v.Describe())
	return err
}

// namedValue is a single value read from the card.
type namedValue struct {
	Name  string
	Value string
}

func (n namedValue) Describe() string {
	return fmt.Sprintf("%s: %s", strings.ToUpper(n.Name), n.Value)
}

func (n namedValue) Export() any {
	return map[string]string{n.Name: n.Value}
}

type pinResult struct {
	Pin     string `json:"pin" yaml:"pin"`
	Outcome string `json:"outcome" yaml:"outcome"`
}

func (p pinResult) Describe() string {
	return fmt.Sprintf("%s %s", p.Pin, p.Outcome)
}

type readerList []string

func (r readerList) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== READERS ===")
	for i, name := range r {
		sb.WriteString(fmt.Sprintf("\n[%d] %s", i, name))
	}
	return sb.String()
}

func (r readerList) Export() any {
	return map[string][]string{"readers": r}
}
