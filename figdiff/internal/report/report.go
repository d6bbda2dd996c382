// Package report writes the visual-regression report of a run: index.html
// with one row per compared node, plus an optional Markdown summary and a
// PDF of failing diffs.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/figdiff/horosafe"
)

// File names written into the report directory.
const (
	IndexFile    = "index.html"
	MarkdownFile = "summary.md"
	PDFFile      = "diffs.pdf"
)

// Row is the outcome for one node. Image fields are file names relative
// to the report directory; Diff is empty when no diff was produced.
type Row struct {
	NodeID          string
	Name            string
	Description     string // Markdown, from the component metadata
	Reference       string
	Actual          string
	Diff            string
	Equal           bool
	BaselineChanged bool
	DiffRatio       float64
	Diagnostics     []string
}

// Report is a full run.
type Report struct {
	RunID    string
	FileKey  string
	FileName string
	Version  string
	Started  time.Time
	Duration time.Duration
	Rows     []Row
}

// Counts returns the number of passing and failing rows.
func (r *Report) Counts() (pass, fail int) {
	for _, row := range r.Rows {
		if row.Equal {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}

// Options controls which artefacts Write produces.
type Options struct {
	// Inline embeds images as data URIs so index.html is self-contained.
	Inline   bool
	Markdown bool
	PDF      bool
	Logger   *slog.Logger
}

// Write renders index.html (and the optional artefacts) into dir.
// Markdown and PDF failures are logged; only index.html is required.
func Write(dir string, r *Report, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}

	var page bytes.Buffer
	if err := HTML(&page, dir, r, opts.Inline); err != nil {
		return err
	}
	if err := writeFile(dir, IndexFile, page.Bytes()); err != nil {
		return err
	}

	if opts.Markdown {
		if err := writeMarkdown(dir, r, opts.Inline, page.String()); err != nil {
			log.Warn("report: markdown summary failed", "error", err)
		}
	}
	if opts.PDF {
		if err := writePDF(dir, r); err != nil {
			log.Warn("report: pdf export failed", "error", err)
		}
	}

	pass, fail := r.Counts()
	log.Info("report: written", "dir", dir, "pass", pass, "fail", fail)
	return nil
}

// writeMarkdown converts a link-only rendering of the page, so the summary
// never carries base64 image payloads.
func writeMarkdown(dir string, r *Report, inline bool, page string) error {
	if inline {
		var buf bytes.Buffer
		if err := HTML(&buf, dir, r, false); err != nil {
			return err
		}
		page = buf.String()
	}
	md, err := Markdown(page)
	if err != nil {
		return err
	}
	return writeFile(dir, MarkdownFile, []byte(md))
}

func writePDF(dir string, r *Report) error {
	var diffs []string
	for _, row := range r.Rows {
		if row.Diff != "" {
			diffs = append(diffs, row.Diff)
		}
	}
	out, err := horosafe.SafePath(dir, PDFFile)
	if err != nil {
		return err
	}
	if len(diffs) == 0 {
		_ = os.Remove(out)
		return nil
	}
	return PDF(dir, diffs, out)
}

func writeFile(dir, name string, data []byte) error {
	p, err := horosafe.SafePath(dir, name)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", name, err)
	}
	return nil
}

// rowView is the template projection of a Row.
type rowView struct {
	Row
	Class       string
	RefSrc      template.URL
	ActSrc      template.URL
	DiffSrc     template.URL
	Percent     string
	Description template.HTML
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>figdiff {{.FileName}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222;background:#fafafa}
h1{font-size:1.4rem;border-bottom:2px solid #e0e0e0;padding-bottom:.5rem}
.meta{font-size:.85rem;color:#666}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #e0e0e0;padding:.5rem;vertical-align:top;text-align:left}
tr.pass td.name{border-left:4px solid #2e7d32}
tr.fail td.name{border-left:4px solid #c62828}
td img{max-width:400px;background-color:#fff;background-image:linear-gradient(45deg,#ccc 25%,transparent 25%),linear-gradient(-45deg,#ccc 25%,transparent 25%),linear-gradient(45deg,transparent 75%,#ccc 75%),linear-gradient(-45deg,transparent 75%,#ccc 75%);background-size:16px 16px;background-position:0 0,0 8px,8px -8px,-8px 0}
.placeholder{color:#999;font-style:italic}
.desc{font-size:.85rem;color:#444}
.diag{font-size:.8rem;color:#c62828}
.badge{font-size:.75rem;background:#fff3e0;color:#e65100;border-radius:3px;padding:0 .3rem}
</style></head><body>
<h1>{{.FileName}}</h1>
<p class="meta">run {{.RunID}} &middot; file {{.FileKey}}{{if .Version}} &middot; version {{.Version}}{{end}} &middot; {{.Started}} &middot; {{.Pass}} passed, {{.Fail}} failed</p>
<table>
<thead><tr><th>Name</th><th>Reference</th><th>Actual</th><th>Difference</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr class="{{.Class}}" id="node-{{.NodeID}}">
<td class="name"><strong>{{.Name}}</strong><br><code>{{.NodeID}}</code>
{{- if .BaselineChanged}} <span class="badge">baseline changed</span>{{end}}
{{- if .Description}}<div class="desc">{{.Description}}</div>{{end}}
{{- range .Diagnostics}}<div class="diag">{{.}}</div>{{end}}</td>
<td>{{if .RefSrc}}<img src="{{.RefSrc}}" alt="reference">{{end}}</td>
<td>{{if .ActSrc}}<img src="{{.ActSrc}}" alt="actual">{{end}}</td>
<td>{{if .DiffSrc}}<img src="{{.DiffSrc}}" alt="difference"><br>{{.Percent}}{{else if .Equal}}<span class="placeholder">identical</span>{{else}}<span class="placeholder">no diff image</span>{{end}}</td>
</tr>
{{- end}}
</tbody></table>
</body></html>`))

// HTML renders the report page. With inline set, images under dir are
// embedded as data URIs; otherwise they are linked relatively.
func HTML(w io.Writer, dir string, r *Report, inline bool) error {
	views := make([]rowView, len(r.Rows))
	for i, row := range r.Rows {
		v := rowView{Row: row, Class: "fail"}
		if row.Equal {
			v.Class = "pass"
		}
		v.RefSrc = imageSrc(dir, row.Reference, inline)
		v.ActSrc = imageSrc(dir, row.Actual, inline)
		v.DiffSrc = imageSrc(dir, row.Diff, inline)
		if row.Diff != "" {
			v.Percent = fmt.Sprintf("%.2f%% of pixels differ", row.DiffRatio*100)
		}
		if row.Description != "" {
			desc, err := Description(row.Description)
			if err != nil {
				return err
			}
			v.Description = desc
		}
		views[i] = v
	}

	pass, fail := r.Counts()
	err := indexTmpl.Execute(w, struct {
		*Report
		Started string
		Pass    int
		Fail    int
		Rows    []rowView
	}{
		Report:  r,
		Started: r.Started.UTC().Format(time.RFC3339),
		Pass:    pass,
		Fail:    fail,
		Rows:    views,
	})
	if err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// imageSrc returns the img src for name. A file that cannot be read for
// inlining falls back to its relative link.
func imageSrc(dir, name string, inline bool) template.URL {
	if name == "" {
		return ""
	}
	if inline {
		if p, err := horosafe.SafePath(dir, name); err == nil {
			if data, err := os.ReadFile(p); err == nil {
				return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
			}
		}
	}
	parts := strings.Split(filepath.ToSlash(name), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return template.URL(strings.Join(parts, "/"))
}
