package cost

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

// Format selects the output of Render.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var formats = []Format{FormatText, FormatJSON, FormatYAML}

var _ pflag.Value = (*Format)(nil)

// String implements pflag.Value.
func (f *Format) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	for _, v := range formats {
		if string(v) == strings.ToLower(s) {
			*f = v
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// Analysis bundles everything the cost command reports.
type Analysis struct {
	Summary         Summary          `json:"summary"`
	Comparison      []ProviderCost   `json:"comparison,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

var textTemplate = template.Must(template.New("cost").Funcs(template.FuncMap{
	"usd": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"rate": func(v float64) string { return fmt.Sprintf("$%.4f", v) },
}).Parse(`Cost analysis ({{.Summary.Provider}}, {{.Summary.Currency}})
{{range $name, $r := .Summary.ByWorkload}}  {{$name}}: {{rate $r.Hourly}}/h {{usd $r.Monthly}}/month
{{end}}Total: {{rate .Summary.Total.Hourly}}/h {{usd .Summary.Total.Daily}}/day {{usd .Summary.Total.Monthly}}/month {{usd .Summary.Total.Annual}}/year
{{- if .Summary.Failures}}

Not priced ({{len .Summary.Failures}}):
{{range .Summary.Failures}}  {{.Workload}}: {{.Error}}
{{end}}
{{- end}}
{{- if .Comparison}}

Provider comparison:
{{range .Comparison}}  {{.Provider}}: {{usd .Total.Monthly}}/month
{{end}}
{{- end}}
{{- if .Recommendations}}

Recommendations ({{len .Recommendations}}):
{{range .Recommendations}}  [{{.Severity}}] {{.Type}} {{.Target}}: {{.Reason}}
    {{.Action}}{{if .EstimatedMonthlySavings}} (saves about {{usd .EstimatedMonthlySavings}}/month){{end}}
{{end}}
{{- end}}
`))

// Render writes a in format.
func Render(w io.Writer, a Analysis, format Format) error {
	switch format {
	case FormatText, "":
		return textTemplate.Execute(w, a)
	case FormatJSON:
		b, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case FormatYAML:
		b, err := yaml.Marshal(a)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
