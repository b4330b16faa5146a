package report

import "time"

type Severity string
const (
	Low Severity = "LOW"
	Medium Severity = "MEDIUM"
	High Severity = "HIGH"
	Critical Severity = "CRITICAL"
)

// Status is the outcome of one check. FAIL means the oracle gave the attack what it wanted.
type Status string
const (
	Pass Status = "PASS"
	Fail Status = "FAIL"
	Inconclusive Status = "INCONCLUSIVE"
)

type Finding struct {
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Severity  Severity    `json:"severity"`
	Status    Status      `json:"status"`
	Evidence  interface{} `json:"evidence,omitempty"`
	Mitigations []string  `json:"mitigations,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	// Active marks checks that forged or decrypted data rather than only observing.
	Active    bool        `json:"active,omitempty"`
}

type Results struct {
	TargetType string     `json:"target_type"`
	Targets    []string   `json:"targets,omitempty"`
	Findings   []Finding  `json:"findings"`
	Seed       string     `json:"seed,omitempty"`
	Notes      []string   `json:"notes,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (r *Results) Add(f Finding) { r.Findings = append(r.Findings, f) }
func (r *Results) Note(s string) { r.Notes = append(r.Notes, s) }

func (r *Results) HasFindings() bool {
	for _, f := range r.Findings {
		if f.Status == Fail { return true }
		if f.Severity == High || f.Severity == Critical {
			if f.Status != Pass { return true }
		}
	}
	return false
}

// Tally counts findings per status.
type Tally struct{ Pass, Fail, Inconclusive int }

func (t *Tally) add(s Status) {
	switch s {
	case Pass: t.Pass++
	case Fail: t.Fail++
	default: t.Inconclusive++
	}
}

// GroupKey is the evidence field findings are grouped by.
const GroupKey = "oracle"

func groupOf(f Finding) string {
	if m, ok := f.Evidence.(map[string]any); ok {
		if v, ok := m[GroupKey].(string); ok && v != "" { return v }
	}
	return "general"
}

// Summary tallies all findings and findings per oracle.
func (r *Results) Summary() (Tally, map[string]*Tally) {
	var all Tally
	per := map[string]*Tally{}
	for _, f := range r.Findings {
		k := groupOf(f)
		if per[k] == nil { per[k] = &Tally{} }
		per[k].add(f.Status)
		all.add(f.Status)
	}
	return all, per
}

// Merge appends other's findings, targets and notes.
func (r *Results) Merge(other *Results) {
	r.Findings = append(r.Findings, other.Findings...)
	r.Notes = append(r.Notes, other.Notes...)
	seen := map[string]bool{}
	for _, t := range r.Targets { seen[t] = true }
	for _, t := range other.Targets {
		if !seen[t] { r.Targets = append(r.Targets, t); seen[t] = true }
	}
	if other.TargetType != "" && other.TargetType != r.TargetType { r.TargetType = "mixed" }
}
