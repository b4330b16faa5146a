package probes

import (
	"errors"

	"blockprobe/internal/attack"
	"blockprobe/internal/report"
)

// Status maps an attack outcome to a finding status: FAIL when the attack worked, PASS when
// the oracle broke the attack's assumptions, INCONCLUSIVE on any other error.
func Status(err error, succeeded bool) report.Status {
	switch {
	case err == nil: return Choose(succeeded, report.Fail, report.Pass)
	case errors.Is(err, attack.ErrOracleAssumptionViolated): return report.Pass
	default: return report.Inconclusive
	}
}

func Choose[T any](cond bool, a, b T) T { if cond { return a }; return b }

// ErrString renders err for evidence maps, empty when nil.
func ErrString(err error) string { if err == nil { return "" }; return err.Error() }
