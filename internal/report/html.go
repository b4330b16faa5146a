package report

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

const css = `body{font-family:ui-sans-serif,system-ui,sans-serif;margin:24px;color:#111}
.h{font-weight:700;margin:0 0 8px 0}
.card{border:1px solid #e4e4e4;border-radius:6px;padding:10px 12px;margin:10px 0}
.badge{display:inline-block;padding:1px 8px;border-radius:999px;font-size:12px;margin-left:6px}
.pass{background:#e6ffed;color:#006644}
.fail{background:#ffebe6;color:#bf2600}
.inc{background:#e6f7ff;color:#0747a6}
.sev-LOW{background:#eef6ff}.sev-MEDIUM{background:#fff7e6}.sev-HIGH{background:#ffe6e6}.sev-CRITICAL{background:#000;color:#fff}
.active{background:#f0f5ff;color:#2f54eb}
.section{margin-top:16px;padding-top:8px;border-top:1px solid #f0f0f0}
table{border-collapse:collapse;font-size:14px}
td,th{padding:4px 10px;border-bottom:1px solid #eee;text-align:right}
td:first-child,th:first-child{text-align:left}
pre{font-family:ui-monospace,monospace;font-size:12px;white-space:pre-wrap;word-break:break-all}
@media print{.card{page-break-inside:avoid}}`

// RenderHTML renders a standalone report page. Passing checks are collapsed.
func RenderHTML(r *Results) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>blockprobe report</title><style>")
	b.WriteString(css)
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1 class=\"h\">blockprobe report<span class=\"badge\">%s</span></h1>", html.EscapeString(r.TargetType))
	if len(r.Targets) > 0 {
		fmt.Fprintf(&b, "<div>Targets: %s</div>", html.EscapeString(strings.Join(r.Targets, ", ")))
	}
	if r.Seed != "" {
		fmt.Fprintf(&b, "<div>Seed: %s</div>", html.EscapeString(r.Seed))
	}
	fmt.Fprintf(&b, "<div>Generated: %s</div>", r.GeneratedAt.Format(timeLayout))

	writeSummary(&b, r)

	groups := map[string][]Finding{}
	for _, f := range r.Findings {
		k := groupOf(f)
		groups[k] = append(groups[k], f)
	}
	for _, k := range displayOrder(keysOf(groups), r.Targets) {
		fmt.Fprintf(&b, "<h2 class=\"h section\">%s</h2>", html.EscapeString(k))
		for _, f := range groups[k] {
			writeFinding(&b, f)
		}
	}
	if len(r.Notes) > 0 {
		b.WriteString("<h2 class=\"h section\">Notes</h2><ul>")
		for _, n := range r.Notes {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(n))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func writeSummary(b *strings.Builder, r *Results) {
	overall, per := r.Summary()
	fmt.Fprintf(b, "<div class=\"section\"><div class=\"h\">Overall: <span class=\"badge pass\">PASS %d</span> <span class=\"badge fail\">FAIL %d</span> <span class=\"badge inc\">INC %d</span></div></div>",
		overall.Pass, overall.Fail, overall.Inconclusive)
	if len(per) == 0 {
		return
	}
	b.WriteString("<div class=\"section\"><table><thead><tr><th>Oracle</th><th>PASS</th><th>FAIL</th><th>INCONCLUSIVE</th></tr></thead><tbody>")
	for _, k := range displayOrder(keysOf(per), r.Targets) {
		t := per[k]
		fmt.Fprintf(b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>", html.EscapeString(k), t.Pass, t.Fail, t.Inconclusive)
	}
	b.WriteString("</tbody></table></div>")
}

func writeFinding(b *strings.Builder, f Finding) {
	cl := "inc"
	switch f.Status {
	case Pass:
		cl = "pass"
	case Fail:
		cl = "fail"
	}
	tag := "div"
	if f.Status == Pass {
		tag = "details"
	}
	fmt.Fprintf(b, "<%s class=\"card\">", tag)
	if tag == "details" {
		b.WriteString("<summary class=\"h\">")
	} else {
		b.WriteString("<div class=\"h\">")
	}
	b.WriteString(html.EscapeString(f.Name))
	fmt.Fprintf(b, " <span class=\"badge %s\">%s</span><span class=\"badge sev-%s\">%s</span>", cl, f.Status, f.Severity, f.Severity)
	if f.Active {
		b.WriteString("<span class=\"badge active\">ACTIVE</span>")
	}
	if tag == "details" {
		b.WriteString("</summary>")
	} else {
		b.WriteString("</div>")
	}
	fmt.Fprintf(b, "<div>Category: %s</div>", html.EscapeString(f.Category))
	if f.Evidence != nil {
		fmt.Fprintf(b, "<pre>%s</pre>", html.EscapeString(asJSON(f.Evidence)))
	}
	if len(f.Mitigations) > 0 {
		b.WriteString("<ul>")
		for _, m := range f.Mitigations {
			fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(m))
		}
		b.WriteString("</ul>")
	}
	fmt.Fprintf(b, "</%s>", tag)
}

func keysOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// displayOrder puts general first, then targets in order, then the remaining keys sorted.
func displayOrder(keys, targets []string) []string {
	have := map[string]bool{}
	for _, k := range keys {
		have[k] = true
	}
	var order []string
	seen := map[string]bool{}
	if have["general"] {
		order = append(order, "general")
		seen["general"] = true
	}
	for _, t := range targets {
		if have[t] && !seen[t] {
			order = append(order, t)
			seen[t] = true
		}
	}
	var rest []string
	for _, k := range keys {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

const timeLayout = "2006-01-02 15:04:05 MST"

func asJSON(v any) string {
	bs, _ := json.MarshalIndent(v, "", "  ")
	return string(bs)
}
