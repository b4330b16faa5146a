package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"blockprobe/internal/crypto"
	"blockprobe/internal/oracle"
	"blockprobe/internal/probes"
	"blockprobe/internal/probes/cbc"
	"blockprobe/internal/probes/ecb"
	"blockprobe/internal/probes/profile"
	"blockprobe/internal/report"
	"blockprobe/internal/xorcipher"
	"blockprobe/pkg/logx"
)

var (
	flagTarget   string
	flagOut      string
	flagHTML     string
	flagPDF      string
	flagSeed     string
	flagTrials   int
	flagWorkers  int
	flagTimeout  time.Duration
	flagLogLevel string
	flagDryRun   bool
)

func main() {
	root := &cobra.Command{
		Use:   "blockprobe",
		Short: "Probe block-cipher oracles for ECB and CBC misuse",
		SilenceUsage: true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) { logx.SetLevel(flagLogLevel) },
	}

	root.PersistentFlags().StringVar(&flagTarget, "target", env("BPROBE_TARGET", ""), "Oracle server base URL (empty: in-process victims)")
	root.PersistentFlags().StringVar(&flagOut, "out", env("BPROBE_OUT", "report.json"), "JSON report output path")
	root.PersistentFlags().StringVar(&flagHTML, "html", env("BPROBE_HTML", ""), "HTML report output path")
	root.PersistentFlags().StringVar(&flagPDF, "pdf", env("BPROBE_PDF", ""), "PDF report output path")
	root.PersistentFlags().StringVar(&flagSeed, "seed", env("BPROBE_SEED", ""), "Seed for reproducible in-process victims")
	root.PersistentFlags().IntVar(&flagTrials, "trials", envInt("BPROBE_TRIALS", 10), "Trials for randomised checks")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", envInt("BPROBE_WORKERS", 4), "Concurrent oracle queries per recovered byte")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", envDuration("BPROBE_TIMEOUT", 5*time.Minute), "Global timeout")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", env("BPROBE_LOG_LEVEL", "info"), "log level: debug,info,warn,error")
	root.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Plan probes without querying any oracle")

	root.AddCommand(cmdProbe())
	root.AddCommand(cmdServe())
	root.AddCommand(cmdReport())
	root.AddCommand(cmdCrack())

	if err := root.Execute(); err != nil {
		if ee, ok := err.(exitError); ok {
			fmt.Fprintln(os.Stderr, ee.err)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}

type probeFunc func(ctx context.Context) (*report.Results, error)

func probeECB(ctx context.Context) (*report.Results, error) {
	return ecb.Run(ctx, ecb.Options{Target: flagTarget, Seed: flagSeed, Trials: flagTrials, Workers: flagWorkers, DryRun: flagDryRun})
}

func probeCBC(ctx context.Context) (*report.Results, error) {
	return cbc.Run(ctx, cbc.Options{Target: flagTarget, Seed: flagSeed, Trials: min(flagTrials, 5), DryRun: flagDryRun})
}

func probeProfile(ctx context.Context) (*report.Results, error) {
	return profile.Run(ctx, profile.Options{Target: flagTarget, Seed: flagSeed, DryRun: flagDryRun})
}

func cmdProbe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run attacks against block-cipher oracles",
	}
	sub := func(use, short string, fns ...probeFunc) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
				defer cancel()
				var merged *report.Results
				for _, fn := range fns {
					res, err := fn(ctx)
					if err != nil {
						return exitCodeErr(4, err)
					}
					if merged == nil { merged = res } else { merged.Merge(res) }
				}
				return writeReports(merged)
			},
		}
	}
	cmd.AddCommand(sub("ecb", "Block size, mode fingerprint and byte-at-a-time recovery", probeECB))
	cmd.AddCommand(sub("cbc", "Bit-flip forgery and padding-oracle decryption", probeCBC))
	cmd.AddCommand(sub("profile", "ECB cut-and-paste role forgery", probeProfile))
	cmd.AddCommand(sub("all", "Run every probe", probeECB, probeCBC, probeProfile))
	return cmd
}

func cmdServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run servers",
	}
	var addr string
	oracles := &cobra.Command{
		Use:   "oracles",
		Short: "Serve the victim oracles over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := probes.NewTarget("", flagSeed)
			if err != nil {
				return exitCodeErr(4, err)
			}
			return oracle.Serve(addr, t.Local)
		},
	}
	oracles.Flags().StringVar(&addr, "addr", env("BPROBE_ADDR", ":8080"), "listen address")
	cmd.AddCommand(oracles)
	return cmd
}

func cmdReport() *cobra.Command {
	var in []string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Convert/merge JSON to HTML/PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(in) == 0 {
				return exitCodeErr(3, fmt.Errorf("provide at least one JSON via --in"))
			}
			merged, err := report.MergeJSONFiles(in)
			if err != nil {
				return err
			}
			return writeReports(merged)
		},
	}
	cmd.Flags().StringSliceVar(&in, "in", nil, "input JSONs to merge")
	return cmd
}

func cmdCrack() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crack",
		Short: "Break classical ciphers offline",
	}
	var (
		in        string
		repeating bool
	)
	xor := &cobra.Command{
		Use:   "xor",
		Short: "Find the single-byte XORed line of a hex file, or break a base64 repeating-key XOR file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return exitCodeErr(3, fmt.Errorf("--in required"))
			}
			out := cmd.OutOrStdout()
			if repeating {
				data, err := os.ReadFile(in)
				if err != nil {
					return exitCodeErr(3, err)
				}
				ct, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(data)), ""))
				if err != nil {
					return exitCodeErr(3, fmt.Errorf("decode base64: %w", err))
				}
				b, err := xorcipher.BreakRepeatingKey(ct)
				if err != nil {
					return exitCodeErr(4, err)
				}
				fmt.Fprintf(out, "key: %q\n\n%s\n", b.Key, b.Plaintext)
				return nil
			}
			cts, err := readHexLines(in)
			if err != nil {
				return exitCodeErr(3, err)
			}
			c := xorcipher.DetectSingleByte(cts)
			if len(c) == 0 {
				return exitCodeErr(4, xorcipher.ErrNoCandidate)
			}
			fmt.Fprintf(out, "ciphertext %d, key %#02x: %q\n", c[0].Index+1, c[0].Key, c[0].Plaintext)
			return nil
		},
	}
	xor.Flags().StringVar(&in, "in", "", "input file")
	xor.Flags().BoolVar(&repeating, "repeating", false, "treat the file as base64 repeating-key XOR")
	cmd.AddCommand(xor)

	var ecbIn string
	ecbCmd := &cobra.Command{
		Use:   "ecb",
		Short: "Find the ECB-encrypted line in a file of hex ciphertexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ecbIn == "" {
				return exitCodeErr(3, fmt.Errorf("--in required"))
			}
			cts, err := readHexLines(ecbIn)
			if err != nil {
				return exitCodeErr(3, err)
			}
			i, n := crypto.DetectECB(cts, 16)
			if i < 0 || n < 2 {
				fmt.Fprintln(cmd.OutOrStdout(), "no line repeats a block")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ciphertext %d: %d repeated blocks\n", i+1, crypto.CountBlocks(cts[i], 16).Repeats())
			return nil
		},
	}
	ecbCmd.Flags().StringVar(&ecbIn, "in", "", "input file")
	cmd.AddCommand(ecbCmd)
	return cmd
}

// readHexLines decodes one ciphertext per non-empty line, skipping lines that are not hex.
func readHexLines(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cts [][]byte
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" { continue }
		ct, err := hex.DecodeString(line)
		if err != nil {
			logx.Warnf("skipping non-hex line: %v", err)
			continue
		}
		cts = append(cts, ct)
	}
	return cts, nil
}

func writeReports(res *report.Results) error {
	if flagOut != "" {
		if err := report.WriteJSONToFile(res, flagOut); err != nil {
			return err
		}
		logx.Infof("wrote JSON report: %s", flagOut)
	}
	if flagHTML != "" {
		html := report.RenderHTML(res)
		if err := os.WriteFile(flagHTML, []byte(html), 0o644); err != nil {
			return err
		}
		logx.Infof("wrote HTML report: %s", flagHTML)
	}
	if flagPDF != "" {
		if err := report.RenderPDFToFile(res, flagPDF); err != nil {
			logx.Warnf("PDF generation failed, wrote HTML if provided: %v", err)
			return nil
		}
		logx.Infof("wrote PDF report: %s", flagPDF)
	}
	all, _ := res.Summary()
	logx.Infof("%s", logx.SprintKV(map[string]any{"pass": all.Pass, "fail": all.Fail, "inconclusive": all.Inconclusive}))
	if res.HasFindings() {
		return exitCodeErr(2, fmt.Errorf("findings present"))
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil { return i }
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil { return d }
	}
	return def
}

type exitError struct{ code int; err error }
func (e exitError) Error() string { return e.err.Error() }
func exitCodeErr(code int, err error) error { return exitError{code: code, err: err} }

func init() { cobra.MousetrapHelpText = "" }
