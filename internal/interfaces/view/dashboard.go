package view

import (
	"context"
	"fmt"
	"html"
	"io"
	"sort"

	"github.com/a-h/templ"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
)

// Dashboard renders the benchmark dashboard page. The page embeds the
// newest run per suite server-side and loads the full history through
// /api/v1/document.js for the charts.
func Dashboard(latest *dto.LatestRunsDTO) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if err := writeSuiteCards(w, latest); err != nil {
			return err
		}

		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

func writeSuiteCards(w io.Writer, latest *dto.LatestRunsDTO) error {
	if latest == nil || len(latest.Suites) == 0 {
		_, err := io.WriteString(w, `<p class="empty">No benchmark runs recorded yet.</p>`)
		return err
	}

	// stable order for rendering
	names := make([]string, 0, len(latest.Suites))
	for name := range latest.Suites {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		run := latest.Suites[name]
		if _, err := fmt.Fprintf(w,
			`<section class="suite-card" data-suite="%s"><h2>%s</h2>`,
			html.EscapeString(name), html.EscapeString(name)); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w,
			`<p class="commit"><a href="%s" rel="noopener">%s</a> — %s</p>`,
			html.EscapeString(run.Commit.URL),
			html.EscapeString(shortCommit(run.Commit.ID)),
			html.EscapeString(run.Commit.Message)); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<table class="benches"><thead><tr><th>Benchmark</th><th>Value</th><th>Unit</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, bench := range run.Benches {
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%g</td><td>%s</td></tr>`,
				html.EscapeString(bench.Name), bench.Value, html.EscapeString(bench.Unit)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table><div class="chart" id="chart-`+html.EscapeString(name)+`"></div></section>`); err != nil {
			return err
		}
	}

	return nil
}

func shortCommit(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Benchmark Dashboard</title>
<link rel="stylesheet" href="/static/css/dashboard.css"/>
</head>
<body>
<header><h1>Benchmark Dashboard</h1></header>
<main id="suites">
`

const pageFoot = `</main>
<script src="/api/v1/document.js"></script>
<script src="/static/js/dashboard.js"></script>
</body>
</html>
`
