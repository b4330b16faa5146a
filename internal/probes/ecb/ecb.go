package ecb

import (
	"context"
	"time"

	"blockprobe/internal/attack"
	"blockprobe/internal/crypto"
	"blockprobe/internal/oracle"
	"blockprobe/internal/probes"
	"blockprobe/internal/report"
	"blockprobe/pkg/logx"
)

type Options struct {
	Target  string
	Seed    string
	Trials  int
	Workers int
	DryRun  bool
}

func Run(ctx context.Context, opt Options) (*report.Results, error) {
	t, err := probes.NewTarget(opt.Target, opt.Seed)
	if err != nil { return nil, err }
	r := &report.Results{TargetType: "ecb", Targets: []string{t.Label()}, Seed: opt.Seed, GeneratedAt: time.Now().UTC()}
	if opt.DryRun {
		r.Note("dry run: no oracle queries sent")
		for _, name := range []string{"ECB mode fingerprint", "Mode detection (coin toss)", "Byte-at-a-time suffix recovery"} {
			r.Add(report.Finding{Name: name, Category: "ECB oracle", Severity: report.Low, Status: report.Inconclusive, Timestamp: time.Now().UTC()})
		}
		return r, nil
	}

	suffix := t.Encrypter(oracle.NameSuffix)

	// Block size and mode fingerprint
	bs, dataLen, err := attack.DiscoverBlockSize(ctx, suffix)
	var mode crypto.Mode
	if err == nil { mode, err = attack.DetectMode(ctx, suffix, bs) }
	r.Add(report.Finding{
		Name: "ECB mode fingerprint",
		Category: "Mode fingerprinting",
		Severity: report.Medium,
		Status: probes.Status(err, mode == crypto.ModeECB),
		Evidence: map[string]any{"oracle": oracle.NameSuffix, "block_size": bs, "data_len": dataLen, "mode": string(mode), "error": probes.ErrString(err)},
		Mitigations: []string{"Never use ECB for data longer than one block", "Use an AEAD mode such as AES-GCM"},
		Timestamp: time.Now().UTC(),
	})

	r.Add(coinToss(ctx, t, opt.Trials, probes.Choose(bs > 0, bs, 16)))

	// Secret suffix recovery
	rec, err := attack.ByteAtATime(ctx, suffix, attack.Options{Workers: opt.Workers})
	ev := map[string]any{"oracle": oracle.NameSuffix, "error": probes.ErrString(err)}
	if rec != nil {
		ev["block_size"] = rec.BlockSize
		ev["prefix_len"] = rec.PrefixLen
		ev["secret_len"] = len(rec.Secret)
		ev["queries"] = rec.Queries
		ev["recovered"] = preview(rec.Secret)
		if t.Local != nil { ev["matches_victim"] = string(rec.Secret) == string(t.Local.Suffix.Suffix()) }
		logx.Infof("recovered %d secret bytes with %d queries", len(rec.Secret), rec.Queries)
	}
	r.Add(report.Finding{
		Name: "Byte-at-a-time suffix recovery",
		Category: "Chosen-plaintext secret recovery",
		Severity: report.Critical,
		Status: probes.Status(err, rec != nil),
		Evidence: ev,
		Mitigations: []string{"Do not encrypt attacker-controlled data next to secrets under a deterministic mode", "Use a fresh random IV or nonce per message"},
		Timestamp: time.Now().UTC(),
		Active: true,
	})
	return r, nil
}

// coinToss runs mode detection against the coin-toss oracle. In-process the true mode is
// known, so accuracy is reported; remotely only the detected split is.
func coinToss(ctx context.Context, t *probes.Target, trials, bs int) report.Finding {
	if trials <= 0 { trials = 20 }
	ev := map[string]any{"oracle": oracle.NameCoinToss, "trials": trials}
	detected := map[crypto.Mode]int{}
	correct := 0
	var err error
	for i := 0; i < trials && err == nil; i++ {
		var actual crypto.Mode
		o := t.Encrypter(oracle.NameCoinToss)
		if t.Local != nil {
			o = attack.OracleFunc(func(ctx context.Context, in []byte) ([]byte, error) {
				ct, m, err := t.Local.CoinToss.EncryptLeaky(ctx, in)
				actual = m
				return ct, err
			})
		}
		var m crypto.Mode
		if m, err = attack.DetectMode(ctx, o, bs); err == nil {
			detected[m]++
			if m == actual { correct++ }
		}
	}
	ev["ecb"] = detected[crypto.ModeECB]
	ev["cbc"] = detected[crypto.ModeCBC]
	ev["error"] = probes.ErrString(err)
	st := report.Inconclusive
	if t.Local != nil {
		ev["correct"] = correct
		st = probes.Status(err, correct == trials)
	} else if err == nil && detected[crypto.ModeECB] > 0 {
		st = report.Fail
	}
	return report.Finding{
		Name: "Mode detection (coin toss)",
		Category: "Mode fingerprinting",
		Severity: report.Medium,
		Status: st,
		Evidence: ev,
		Mitigations: []string{"Repeated plaintext blocks must not produce repeated ciphertext blocks"},
		Timestamp: time.Now().UTC(),
	}
}

func preview(b []byte) string {
	if len(b) > 64 { return string(b[:64]) + "..." }
	return string(b)
}
