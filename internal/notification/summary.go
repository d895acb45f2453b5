package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/model"
	"github.com/bher20/npahowtopay/internal/report"
)

// summaryColumns are the deltas shown per scenario in the email.
var summaryColumns = []string{
	"total_inflation_adjusted_revenue_requirement",
	"nonconverts_total_bill_per_user",
	"converts_total_bill_per_user",
}

type summaryRow struct {
	Scenario string
	Year     int
	Values   []string
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<h2>NPA analysis {{.Name}}</h2>
<p>Analysis <code>{{.ID}}</code>, years {{.Start}} to {{.End}}, status <b>{{.Status}}</b>.</p>
{{if .Error}}<p>Error: {{.Error}}</p>{{end}}
{{if .Rows}}<p>Change against business as usual in the final simulated year:</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>scenario</th><th>year</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr><td>{{.Scenario}}</td><td>{{.Year}}</td>{{range .Values}}<td align="right">{{.}}</td>{{end}}</tr>
{{end}}</table>{{end}}
`))

// AnalysisSummary renders the subject and HTML body of an analysis email.
func AnalysisSummary(res *analysis.Result) (string, string) {
	name := res.RunName
	if name == "" {
		name = res.ID
	}
	subject := fmt.Sprintf("[npahowtopay] analysis %s %s", name, res.Status)

	var rows []summaryRow
	last := map[string]model.DeltaRow{}
	var order []string
	for _, d := range res.Deltas {
		if _, seen := last[d.ScenarioID]; !seen {
			order = append(order, d.ScenarioID)
		}
		if prev, ok := last[d.ScenarioID]; !ok || d.Year > prev.Year {
			last[d.ScenarioID] = d
		}
	}
	for _, id := range order {
		d := last[id]
		vals := make([]string, len(summaryColumns))
		for i, col := range summaryColumns {
			vals[i] = report.Format(col, d.Values[col])
		}
		rows = append(rows, summaryRow{Scenario: id, Year: d.Year, Values: vals})
	}

	var buf bytes.Buffer
	_ = summaryTmpl.Execute(&buf, map[string]any{
		"Name":    name,
		"ID":      res.ID,
		"Start":   res.StartYear,
		"End":     res.EndYear - 1,
		"Status":  res.Status,
		"Error":   res.Error,
		"Columns": summaryColumns,
		"Rows":    rows,
	})
	return subject, buf.String()
}
