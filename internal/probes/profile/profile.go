package profile

import (
	"context"
	"errors"
	"time"

	"blockprobe/internal/attack"
	"blockprobe/internal/oracle"
	"blockprobe/internal/probes"
	"blockprobe/internal/report"
)

type Options struct {
	Target string
	Seed   string
	DryRun bool
}

func Run(ctx context.Context, opt Options) (*report.Results, error) {
	t, err := probes.NewTarget(opt.Target, opt.Seed)
	if err != nil { return nil, err }
	r := &report.Results{TargetType: "profile", Targets: []string{t.Label()}, Seed: opt.Seed, GeneratedAt: time.Now().UTC()}
	if opt.DryRun {
		r.Note("dry run: no oracle queries sent")
		for _, name := range []string{"Metacharacter rejection", "ECB cut-and-paste role forgery"} {
			r.Add(report.Finding{Name: name, Category: "Profile oracle", Severity: report.Low, Status: report.Inconclusive, Timestamp: time.Now().UTC()})
		}
		return r, nil
	}
	enc := t.Encrypter(oracle.NameProfile)

	// Direct injection must be refused
	_, injErr := enc.Encrypt(ctx, []byte("foo@bar.com&role=admin"))
	r.Add(report.Finding{
		Name: "Metacharacter rejection",
		Category: "Input encoding",
		Severity: report.Medium,
		Status: probes.Choose(injErr != nil, report.Pass, report.Fail),
		Evidence: map[string]any{"oracle": oracle.NameProfile, "input": "foo@bar.com&role=admin", "error": probes.ErrString(injErr)},
		Mitigations: []string{"Reject or escape & and = in user-supplied fields"},
		Timestamp: time.Now().UTC(),
	})

	f, err := attack.CutAndPaste(ctx, enc, attack.CutPasteOptions{Privileged: "admin", Replaced: "user"})
	ev := map[string]any{"oracle": oracle.NameProfile}
	accepted := false
	if err == nil {
		ev["block_size"] = f.BlockSize
		ev["email_offset"] = f.PrefixLen
		ev["forged_len"] = len(f.Ciphertext)
		accepted, err = t.Verifier(oracle.NameProfile).Verify(ctx, f.Ciphertext)
		ev["accepted"] = accepted
		if err == nil && t.Local != nil {
			if kv, derr := t.Local.Profile.Decode(f.Ciphertext); derr == nil { ev["decoded"] = kv }
		}
	}
	ev["error"] = probes.ErrString(err)
	st := report.Inconclusive
	switch {
	case err == nil: st = probes.Choose(accepted, report.Fail, report.Pass)
	case errors.Is(err, attack.ErrOracleAssumptionViolated): st = report.Pass
	}
	r.Add(report.Finding{
		Name: "ECB cut-and-paste role forgery",
		Category: "Ciphertext malleability",
		Severity: report.High,
		Status: st,
		Evidence: ev,
		Mitigations: []string{"Authenticate encrypted records", "Do not use ECB for structured data"},
		Timestamp: time.Now().UTC(),
		Active: true,
	})
	return r, nil
}
