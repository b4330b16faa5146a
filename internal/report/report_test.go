package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sample(target string, findings ...Finding) *Results {
	r := &Results{TargetType: target, Targets: []string{"local"}, GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	for _, f := range findings { r.Add(f) }
	return r
}

func TestHasFindings(t *testing.T) {
	if sample("ecb", Finding{Status: Pass, Severity: High}).HasFindings() { t.Fatal("passing high finding flagged") }
	if !sample("ecb", Finding{Status: Fail, Severity: Low}).HasFindings() { t.Fatal("failure not flagged") }
	if !sample("ecb", Finding{Status: Inconclusive, Severity: Critical}).HasFindings() { t.Fatal("inconclusive critical not flagged") }
	if sample("ecb", Finding{Status: Inconclusive, Severity: Low}).HasFindings() { t.Fatal("inconclusive low flagged") }
}

func TestSummaryGroupsByOracle(t *testing.T) {
	r := sample("ecb",
		Finding{Status: Fail, Evidence: map[string]any{"oracle": "suffix"}},
		Finding{Status: Pass, Evidence: map[string]any{"oracle": "suffix"}},
		Finding{Status: Inconclusive},
	)
	all, per := r.Summary()
	if all.Pass != 1 || all.Fail != 1 || all.Inconclusive != 1 { t.Fatalf("got %+v", all) }
	if per["suffix"].Fail != 1 || per["general"].Inconclusive != 1 { t.Fatalf("got %+v", per) }
}

func TestMergeJSONFiles(t *testing.T) {
	dir := t.TempDir()
	a := sample("ecb", Finding{Name: "a", Status: Pass})
	b := sample("cbc", Finding{Name: "b", Status: Fail})
	b.Targets = []string{"local", "http://x"}
	b.Note("seeded run")
	pa, pb := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	if err := WriteJSONToFile(a, pa); err != nil { t.Fatal(err) }
	if err := WriteJSONToFile(b, pb); err != nil { t.Fatal(err) }
	m, err := MergeJSONFiles([]string{pa, pb})
	if err != nil { t.Fatal(err) }
	if len(m.Findings) != 2 || m.Findings[1].Name != "b" { t.Fatalf("got %+v", m.Findings) }
	if len(m.Targets) != 2 || m.TargetType != "mixed" || len(m.Notes) != 1 { t.Fatalf("got %+v", m) }
	if !m.HasFindings() { t.Fatal("merged failure lost") }
}

func TestMergeJSONFilesErrors(t *testing.T) {
	if _, err := MergeJSONFiles(nil); err == nil { t.Fatal("expected error for no inputs") }
	if _, err := MergeJSONFiles([]string{filepath.Join(t.TempDir(), "missing.json")}); err == nil { t.Fatal("expected error for missing file") }
}

func TestRenderHTML(t *testing.T) {
	r := sample("ecb",
		Finding{Name: "Byte-at-a-time <suffix>", Status: Fail, Severity: High, Evidence: map[string]any{"oracle": "suffix"}, Active: true},
		Finding{Name: "Block size", Status: Pass, Severity: Low, Evidence: map[string]any{"oracle": "coin-toss"}},
	)
	r.Note("note & more")
	out := RenderHTML(r)
	for _, want := range []string{"blockprobe report", "Byte-at-a-time &lt;suffix&gt;", "ACTIVE", "note &amp; more", "FAIL 1"} {
		if !strings.Contains(out, want) { t.Fatalf("missing %q", want) }
	}
	if strings.Index(out, "<h2 class=\"h section\">coin-toss</h2>") > strings.Index(out, "<h2 class=\"h section\">suffix</h2>") { t.Fatal("groups not sorted") }
}

func TestRenderPDF(t *testing.T) {
	r := sample("cbc", Finding{Name: "Bit-flip", Status: Fail, Severity: High, Evidence: map[string]any{"oracle": "cookie"}})
	var buf bytes.Buffer
	if err := RenderPDF(r).Output(&buf); err != nil { t.Fatal(err) }
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) { t.Fatal("not a pdf") }
}
