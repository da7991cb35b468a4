package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nanicare/nani-backend/pkg/sheet"
)

// timestampFields are checked, in order, for a prefix on the latest
// care-log line.
var timestampFields = []string{"Timestamp", "Time", "Date"}

// BuildSystemPrompt composes the system prompt: persona, scenario
// block, then caller-supplied context, separated by blank lines. Any
// section that renders empty is omitted entirely.
func BuildSystemPrompt(now time.Time, plan DayPlan, entry sheet.Record, extra string) string {
	sections := make([]string, 0, 3)

	if p := strings.TrimSpace(Persona); p != "" {
		sections = append(sections, p)
	}
	if s := renderScenario(now, plan, entry); s != "" {
		sections = append(sections, s)
	}
	if e := strings.TrimSpace(extra); e != "" {
		sections = append(sections, e)
	}

	return strings.Join(sections, "\n\n")
}

// renderScenario renders the daily block: date, vitals, care roster,
// medication agenda, and the latest sheet entry when one is cached.
func renderScenario(now time.Time, plan DayPlan, entry sheet.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s.\n", now.Format("Monday, January 2, 2006"))

	if v := strings.TrimSpace(plan.Vitals); v != "" {
		name := plan.PatientName
		if name == "" {
			name = "the patient"
		}
		fmt.Fprintf(&b, "\n%s's vitals this morning: %s.\n", name, v)
	}

	if len(plan.Roster) > 0 {
		b.WriteString("\nCare circle:\n")
		for _, c := range plan.Roster {
			fmt.Fprintf(&b, "- %s (%s), %s", c.Name, c.Relation, c.Phone)
			if c.Notes != "" {
				fmt.Fprintf(&b, " — %s", c.Notes)
			}
			b.WriteByte('\n')
		}
	}

	if len(plan.Agenda) > 0 {
		b.WriteString("\nToday's medication agenda:\n")
		for _, d := range plan.Agenda {
			fmt.Fprintf(&b, "- %s: %s %s for %s, %s [%s]\n",
				d.Time, d.Drug, d.Amount, d.Purpose, d.Instructions, d.Status)
		}
	}

	if line := renderCareLog(entry); line != "" {
		fmt.Fprintf(&b, "\nLatest care log: %s\n", line)
	}

	return strings.TrimSpace(b.String())
}

// renderCareLog flattens the cached sheet entry to one line, prefixed
// with its timestamp field when one exists.
func renderCareLog(entry sheet.Record) string {
	if len(entry) == 0 {
		return ""
	}

	prefix := ""
	prefixKey := ""
	for _, key := range timestampFields {
		if v := strings.TrimSpace(entry[key]); v != "" {
			prefix = v
			prefixKey = key
			break
		}
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if k == prefixKey {
			continue
		}
		if strings.TrimSpace(entry[k]) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, strings.TrimSpace(entry[k])))
	}

	line := strings.Join(parts, ", ")
	if line == "" {
		return prefix
	}
	if prefix != "" {
		return fmt.Sprintf("(%s) %s", prefix, line)
	}
	return line
}
