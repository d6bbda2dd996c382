package figdiff

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/figdiff/figdiff/internal/store"
)

func historyRunner(t *testing.T) (*Runner, *fakeAPI) {
	cfg := testConfig(t)
	cfg.KeepRuns = true
	r, api, _ := newTestRunner(t, cfg, solidPNG(t, 50, 50, red), red, WithStore(store.OpenMemory(t)))
	return r, api
}

// WHAT: A new reference for the same node is flagged on the next run.
// WHY: Baseline edits must be told apart from rendering regressions.
func TestRun_BaselineChanged(t *testing.T) {
	r, api := historyRunner(t)
	ctx := context.Background()

	first, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Report.Rows[0].BaselineChanged {
		t.Fatal("first run cannot have a changed baseline")
	}

	api.refs["https://render/1"] = solidPNG(t, 50, 50, blue)
	second, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	row := second.Report.Rows[0]
	if !row.BaselineChanged || row.Equal {
		t.Fatalf("second run row: %+v", row)
	}

	stored, err := r.Store().GetRun(ctx, second.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Fail != 1 || !stored.Results[0].BaselineChanged || stored.Results[0].Diff != "1-1.diff.png" {
		t.Fatalf("stored run: %+v", stored)
	}
}

func TestServer(t *testing.T) {
	r, _ := historyRunner(t)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewServer(r, nil).Handler())
	defer ts.Close()

	get := func(path string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	if resp, body := get("/health"); resp.StatusCode != 200 || !strings.Contains(body, `"ok"`) {
		t.Fatalf("/health: %d %s", resp.StatusCode, body)
	}

	resp, body := get("/")
	if resp.StatusCode != 200 || !strings.Contains(body, "<th>Difference</th>") {
		t.Fatalf("/: %d %s", resp.StatusCode, body)
	}
	if resp.Request.URL.Path != "/runs/"+res.RunID+"/" {
		t.Errorf("/ redirected to %s", resp.Request.URL.Path)
	}

	if resp, _ := get("/runs/" + res.RunID + "/1-1.actual.png"); resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("report file: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp, _ := get("/runs/" + res.RunID + "/missing.png"); resp.StatusCode != 404 {
		t.Errorf("missing file: %d", resp.StatusCode)
	}

	resp, body = get("/api/runs")
	var runs []store.Run
	if err := json.Unmarshal([]byte(body), &runs); err != nil || len(runs) != 1 || runs[0].ID != res.RunID {
		t.Fatalf("/api/runs: %d %s", resp.StatusCode, body)
	}

	resp, body = get("/api/runs/" + res.RunID)
	var run store.Run
	if err := json.Unmarshal([]byte(body), &run); err != nil || len(run.Results) != 1 || run.Pass != 1 {
		t.Fatalf("/api/runs/{id}: %d %s", resp.StatusCode, body)
	}
	if resp, _ := get("/api/runs/run_nope"); resp.StatusCode != 404 {
		t.Errorf("unknown run: %d", resp.StatusCode)
	}

	post, err := http.Post(ts.URL+"/api/runs", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer post.Body.Close()
	var sum Summary
	if err := json.NewDecoder(post.Body).Decode(&sum); err != nil || post.StatusCode != http.StatusCreated || sum.Pass != 1 {
		t.Fatalf("POST /api/runs: %d %+v %v", post.StatusCode, sum, err)
	}
}

func TestServer_WithoutHistory(t *testing.T) {
	cfg := testConfig(t)
	r, _, _ := newTestRunner(t, cfg, solidPNG(t, 50, 50, red), red)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewServer(r, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("/ without history: %d", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("/api/runs without history: %d", resp.StatusCode)
	}
}
