package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFindUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
storage:
  type: bolt
  pth: /tmp/typo.bolt
  redis:
    password: secret
display:
  colour: blue
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	unknown, err := findUnknownKeys(path)
	if err != nil {
		t.Fatalf("findUnknownKeys: %v", err)
	}
	want := []string{"display.colour", "storage.pth"}
	if strings.Join(unknown, ",") != strings.Join(want, ",") {
		t.Errorf("unknown keys = %v, want %v", unknown, want)
	}
}

func TestDumpConfigHighlightsChanges(t *testing.T) {
	color.NoColor = true

	defaults := getDefaultConfig()
	cfg := *defaults
	cfg.Display.DefaultRange = "week"
	cfg.Storage.Redis.Password = "hunter2"

	var buf bytes.Buffer
	dumpConfig(&buf, &cfg, defaults)
	out := buf.String()

	if !strings.Contains(out, "default_range = week  (modified from default: all)") {
		t.Errorf("modified field not highlighted:\n%s", out)
	}
	if !strings.Contains(out, "recent_limit = 20\n") {
		t.Errorf("default field missing:\n%s", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password was not redacted")
	}
}
