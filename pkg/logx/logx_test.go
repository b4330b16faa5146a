package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetLevel("info")

	SetLevel("info")
	Debugf("hidden %d", 1)
	if buf.Len() != 0 { t.Fatalf("debug leaked at info level: %q", buf.String()) }

	SetLevel("debug")
	Debugf("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") { t.Fatalf("expected debug output, got %q", buf.String()) }
}

func TestSetLevelIgnoresUnknown(t *testing.T) {
	SetLevel("warn")
	SetLevel("verbose")
	if Level() != "warning" { t.Fatalf("unexpected level %q", Level()) }
	SetLevel("info")
}

func TestSprintKVSorted(t *testing.T) {
	got := SprintKV(map[string]any{"b": 2, "a": "x"})
	if got != "a=x b=2" { t.Fatalf("unexpected: %q", got) }
}
