package cbc

import (
	"context"
	"net/http/httptest"
	"testing"

	"blockprobe/internal/crypto"
	"blockprobe/internal/oracle"
	"blockprobe/internal/report"
)

func TestRunLocal(t *testing.T) {
	r, err := Run(context.Background(), Options{Seed: "cbc-probe", Trials: 2})
	if err != nil { t.Fatal(err) }
	if len(r.Findings) != 2 { t.Fatalf("got %d findings", len(r.Findings)) }
	for _, f := range r.Findings {
		if f.Status != report.Fail { t.Fatalf("%s: %s %v", f.Name, f.Status, f.Evidence) }
	}
	ev := r.Findings[1].Evidence.(map[string]any)
	if ev["verified"] != 2 { t.Fatalf("evidence %v", ev) }
}

func TestRunRemote(t *testing.T) {
	v, err := oracle.NewVictims(crypto.NewSource([]byte("cbc-remote")))
	if err != nil { t.Fatal(err) }
	srv := httptest.NewServer(oracle.NewServer(v))
	defer srv.Close()
	r, err := Run(context.Background(), Options{Target: srv.URL, Trials: 1})
	if err != nil { t.Fatal(err) }
	for _, f := range r.Findings {
		if f.Status != report.Fail { t.Fatalf("%s: %s %v", f.Name, f.Status, f.Evidence) }
	}
	if ev := r.Findings[0].Evidence.(map[string]any); ev["prefix_len"] != 32 { t.Fatalf("evidence %v", ev) }
}

func TestRunUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	r, err := Run(context.Background(), Options{Target: url, Trials: 1})
	if err != nil { t.Fatal(err) }
	for _, f := range r.Findings {
		if f.Status != report.Inconclusive { t.Fatalf("%s: %s", f.Name, f.Status) }
	}
}

func TestRunDryRun(t *testing.T) {
	r, err := Run(context.Background(), Options{DryRun: true})
	if err != nil { t.Fatal(err) }
	if r.HasFindings() { t.Fatal("dry run must not report findings") }
}
