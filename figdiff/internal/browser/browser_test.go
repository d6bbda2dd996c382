package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileURL(t *testing.T) {
	dir := t.TempDir()
	got, err := FileURL(filepath.Join(dir, "page.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/page.html") {
		t.Fatalf("FileURL: got %q", got)
	}

	for _, in := range []string{"file:///tmp/x.html", "http://localhost:8080/"} {
		got, err := FileURL(in)
		if err != nil || got != in {
			t.Fatalf("FileURL(%q): got %q, %v", in, got, err)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.defaults()
	if c.Scale != 1 || c.LoadTimeout != 30*time.Second || c.Logger == nil {
		t.Fatalf("defaults: got %+v", c)
	}
}

func TestIsLocal(t *testing.T) {
	for scheme, want := range map[string]bool{
		"file": true, "data": true, "about": true,
		"http": false, "https": false, "ws": false,
	} {
		if isLocal(scheme) != want {
			t.Errorf("isLocal(%q) = %v", scheme, !want)
		}
	}
}

// WHAT: A real Chrome renders a red page at the requested viewport size.
// WHY: Guards the viewport and screenshot wiring end to end; needs a local
// Chrome so it only runs when FIGDIFF_CHROME_TEST is set.
func TestSession_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("FIGDIFF_CHROME_TEST") == "" {
		t.Skip("set FIGDIFF_CHROME_TEST=1 to run against a local Chrome")
	}
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	html := `<!DOCTYPE html><html><body style="margin:0"><div style="width:20px;height:10px;background:red"></div></body></html>`
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := New(Config{Transparent: true}).Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SetViewport(ctx, 20, 10); err != nil {
		t.Fatal(err)
	}
	if err := s.Navigate(ctx, page); err != nil {
		t.Fatal(err)
	}
	png, err := s.Capture(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatal("capture did not return a PNG")
	}
}
