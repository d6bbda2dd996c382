package figdiff

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hazyhaar/figdiff/figdiff/internal/geometry"
	"github.com/hazyhaar/figdiff/figdiff/internal/imgdiff"
	"github.com/hazyhaar/figdiff/figdiff/internal/report"
	"github.com/hazyhaar/figdiff/figdiff/internal/selector"
	"github.com/hazyhaar/figdiff/figdiff/internal/store"
	"github.com/hazyhaar/figdiff/figma"
	"github.com/hazyhaar/figdiff/horosafe"
	"github.com/hazyhaar/figdiff/idgen"
)

// Result is the outcome of one run.
type Result struct {
	RunID  string
	Dir    string
	Report *report.Report
}

// Counts returns the number of passing and failing nodes.
func (r *Result) Counts() (pass, fail int) {
	return r.Report.Counts()
}

// Failed reports whether any node differs from its reference.
func (r *Result) Failed() bool {
	_, fail := r.Counts()
	return fail > 0
}

// Run executes one comparison run. Design API errors abort the run;
// per-node failures are logged and the node is left out of the report.
// Concurrent calls return ErrBusy.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()

	cfg := r.cfg
	log := r.logger
	start := r.now()
	runID := r.newID()
	log = log.With("run_id", runID)

	file, err := r.api.GetFile(ctx, cfg.FileKey, figma.FileOptions{
		Version:  cfg.Version,
		Geometry: "paths",
	})
	if err != nil {
		return nil, err
	}
	if file.Document == nil {
		return nil, ErrNoDocument
	}

	policy, err := selector.ParsePolicy(cfg.Select)
	if err != nil {
		return nil, err
	}
	nodes := selector.Select(file.Document, policy, cfg.TagPrefix)
	if cfg.Dedupe {
		nodes = selector.Dedupe(nodes)
	}
	log.Info("figdiff: nodes selected", "file", file.Name, "policy", policy, "count", len(nodes))

	images := &figma.ImageResult{}
	if len(nodes) > 0 {
		images, err = r.api.GetImages(ctx, cfg.FileKey, figma.ImageOptions{
			IDs:     selector.IDs(nodes),
			Scale:   cfg.Scale,
			Format:  "png",
			Version: cfg.Version,
		})
		if err != nil {
			return nil, err
		}
	}

	dir := cfg.OutDir
	if cfg.KeepRuns {
		dir = filepath.Join(cfg.OutDir, idgen.Timestamped(func() string { return idgen.Short(runID) }, r.now)())
	}
	for _, d := range []string{dir, cfg.WorkDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("figdiff: mkdir %s: %w", d, err)
		}
	}

	session, err := r.browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("figdiff: open browser: %w", err)
	}
	defer session.Close()

	var (
		wg     sync.WaitGroup
		rows   []*report.Row
		hashes = map[*report.Row]string{}
	)
	for _, n := range nodes {
		if ctx.Err() != nil {
			log.Warn("figdiff: run cancelled", "error", ctx.Err())
			break
		}
		nlog := log.With("node_id", n.ID)
		row, hash, err := r.compareNode(ctx, session, n, images, dir, &wg)
		if err != nil {
			nlog.Error("figdiff: node skipped", "error", err)
			continue
		}
		row.Description = description(file, n)
		rows = append(rows, row)
		hashes[row] = hash
	}
	wg.Wait()

	rep := &report.Report{
		RunID:    runID,
		FileKey:  cfg.FileKey,
		FileName: file.Name,
		Version:  cfg.Version,
		Started:  start,
		Duration: r.now().Sub(start),
	}
	for _, row := range rows {
		rep.Rows = append(rep.Rows, *row)
	}

	if r.store != nil {
		if err := r.record(ctx, rep, dir, rows, hashes); err != nil {
			log.Warn("figdiff: history not recorded", "error", err)
		}
	}

	if err := report.Write(dir, rep, report.Options{
		Inline:   cfg.InlineImages,
		Markdown: cfg.Report.Markdown,
		PDF:      cfg.Report.PDF,
		Logger:   log,
	}); err != nil {
		return nil, err
	}

	pass, fail := rep.Counts()
	log.Info("figdiff: run complete", "dir", dir, "pass", pass, "fail", fail,
		"duration", rep.Duration.Round(time.Millisecond))
	return &Result{RunID: runID, Dir: dir, Report: rep}, nil
}

// compareNode produces the report row for n. When the images differ the
// diff is rendered on wg and fills row.Diff once wg is done.
func (r *Runner) compareNode(ctx context.Context, s Session, n *figma.Node, images *figma.ImageResult, dir string, wg *sync.WaitGroup) (*report.Row, string, error) {
	cfg := r.cfg
	log := r.logger.With("node_id", n.ID)
	stem := horosafe.FileStem(n.ID)
	row := &report.Row{NodeID: n.ID, Name: n.Name}

	u := images.URL(n.ID)
	if u == "" {
		return nil, "", ErrNoReference
	}
	refData, err := r.api.Download(ctx, u)
	if err != nil {
		return nil, "", fmt.Errorf("reference: %w", err)
	}
	row.Reference = stem + ".reference.png"
	if err := writeOut(dir, row.Reference, refData); err != nil {
		return nil, "", err
	}

	actData, err := r.screenshot(ctx, s, n, stem)
	if err != nil {
		return nil, "", fmt.Errorf("screenshot: %w", err)
	}
	row.Actual = stem + ".actual.png"
	if err := writeOut(dir, row.Actual, actData); err != nil {
		return nil, "", err
	}

	ref, err := imgdiff.Decode(refData)
	if err != nil {
		return nil, "", fmt.Errorf("reference: %w", err)
	}
	act, err := imgdiff.Decode(actData)
	if err != nil {
		return nil, "", fmt.Errorf("actual: %w", err)
	}
	cmp, err := r.cmp.Compare(ref, act, cfg.Tolerance)
	if err != nil {
		return nil, "", fmt.Errorf("compare: %w", err)
	}
	row.Equal = cmp.Equal
	row.DiffRatio = cmp.Ratio()
	log.Debug("figdiff: compared", "equal", cmp.Equal, "diff_pixels", cmp.DiffPixels)

	if !cmp.Equal {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := stem + ".diff.png"
			if err := r.writeDiff(dir, name, ref, act); err != nil {
				log.Warn("figdiff: diff image failed", "error", err)
				row.Diagnostics = append(row.Diagnostics, "diff image failed: "+err.Error())
				return
			}
			row.Diff = name
		}()
	}
	return row, store.Fingerprint(refData), nil
}

// screenshot renders n through the translator and captures it at the
// node's resolved size.
func (r *Runner) screenshot(ctx context.Context, s Session, n *figma.Node, stem string) ([]byte, error) {
	page, err := r.translator.Document(n)
	if err != nil {
		return nil, err
	}
	path, err := horosafe.SafePath(r.cfg.WorkDir, stem+".html")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}

	// A zero dimension would reset the viewport override.
	w, h := geometry.Resolve(n, r.logger).Pixels()
	w, h = max(w, 1), max(h, 1)
	if err := s.SetViewport(ctx, w, h); err != nil {
		return nil, err
	}
	if err := s.Navigate(ctx, path); err != nil {
		return nil, err
	}
	return s.Capture(ctx)
}

func (r *Runner) writeDiff(dir, name string, ref, act image.Image) error {
	img, err := r.cmp.Difference(ref, act, DiffOptions{
		HighlightColor: r.cfg.HighlightColor,
		Tolerance:      r.cfg.Tolerance,
	})
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := imgdiff.Encode(&buf, img); err != nil {
		return err
	}
	return writeOut(dir, name, buf.Bytes())
}

// record stores the run and copies the baseline flags back into the report.
func (r *Runner) record(ctx context.Context, rep *report.Report, dir string, rows []*report.Row, hashes map[*report.Row]string) error {
	run := &store.Run{
		ID:        rep.RunID,
		FileKey:   rep.FileKey,
		FileName:  rep.FileName,
		Version:   rep.Version,
		Dir:       dir,
		StartedAt: rep.Started,
		Duration:  rep.Duration,
	}
	for _, row := range rows {
		run.Results = append(run.Results, store.Result{
			NodeID:      row.NodeID,
			Name:        row.Name,
			Equal:       row.Equal,
			DiffRatio:   row.DiffRatio,
			RefHash:     hashes[row],
			Reference:   row.Reference,
			Actual:      row.Actual,
			Diff:        row.Diff,
			Diagnostics: row.Diagnostics,
		})
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		return err
	}
	for i := range run.Results {
		rep.Rows[i].BaselineChanged = run.Results[i].BaselineChanged
	}
	return nil
}

// description returns the Markdown description of the component n is or
// instantiates.
func description(f *figma.File, n *figma.Node) string {
	if m, ok := f.Components[n.ID]; ok {
		return m.Description
	}
	if n.ComponentID != "" {
		return f.Components[n.ComponentID].Description
	}
	return ""
}

func writeOut(dir, name string, data []byte) error {
	p, err := horosafe.SafePath(dir, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("figdiff: write %s: %w", name, err)
	}
	return nil
}
