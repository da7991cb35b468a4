package prompt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nanicare/nani-backend/pkg/prompt"
	"github.com/nanicare/nani-backend/pkg/sheet"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestBuildSystemPrompt(t *testing.T) {
	t.Run("persona always leads", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, nil, "")
		if !strings.HasPrefix(got, "You are Nani") {
			t.Errorf("prompt does not start with persona:\n%s", got)
		}
	})

	t.Run("date rendered long form", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, nil, "")
		if !strings.Contains(got, "Today is Friday, March 14, 2025.") {
			t.Errorf("missing long-form date:\n%s", got)
		}
	})

	t.Run("empty sections omitted", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, nil, "")
		for _, absent := range []string{"vitals", "Care circle", "medication agenda", "Latest care log"} {
			if strings.Contains(got, absent) {
				t.Errorf("unexpected %q section in minimal prompt:\n%s", absent, got)
			}
		}
		if strings.Contains(got, "\n\n\n") {
			t.Errorf("blank sections left extra separators:\n%s", got)
		}
	})

	t.Run("demo plan renders roster and agenda", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DemoPlan(), nil, "")
		for _, want := range []string{
			"Nani's vitals this morning: BP 128/82",
			"Care circle:",
			"- Yash Thakkar (Son), +1 555-0142",
			"Today's medication agenda:",
			"- 1:00 PM: Metformin 500mg for blood sugar, take after lunch [pending]",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q in:\n%s", want, got)
			}
		}
	})

	t.Run("extra context appended last", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, nil, "  The patient prefers Gujarati.  ")
		if !strings.HasSuffix(got, "The patient prefers Gujarati.") {
			t.Errorf("extra context not trimmed and appended:\n%s", got)
		}
	})

	t.Run("sheet entry rendered as care log", func(t *testing.T) {
		entry := sheet.Record{
			"Timestamp":  "3/14/2025 9:30:00",
			"Medication": "Aspirin",
			"Pills Left": "0",
			"Notes":      "  ",
		}
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, entry, "")
		want := "Latest care log: (3/14/2025 9:30:00) Medication=Aspirin, Pills Left=0"
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
		if strings.Contains(got, "Notes=") {
			t.Errorf("blank field should be skipped:\n%s", got)
		}
	})

	t.Run("care log without timestamp field", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, sheet.Record{"B": "2", "A": "1"}, "")
		if !strings.Contains(got, "Latest care log: A=1, B=2") {
			t.Errorf("expected sorted unprefixed care log in:\n%s", got)
		}
	})

	t.Run("nil entry renders no care log", func(t *testing.T) {
		got := prompt.BuildSystemPrompt(testNow, prompt.DayPlan{}, nil, "")
		if strings.Contains(got, "Latest care log") {
			t.Errorf("care log rendered for nil entry:\n%s", got)
		}
	})
}
