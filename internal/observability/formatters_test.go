package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/types"
)

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	prof := &types.Profile{
		PersonalInfo: map[string]string{
			"full_name": "Ada Example",
			"email":     "ada@example.com",
		},
		Experience:       []types.ExperienceEntry{{Title: "Engineer"}},
		Skills:           []string{"Go", "SQL"},
		SelectedTemplate: "modern",
		Version:          3,
	}

	p.PrintProfile(prof)
	output := buf.String()

	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "Ada Example")
	assert.Contains(t, output, "ada@example.com")
	assert.Contains(t, output, "Experience: 1 entries")
	assert.Contains(t, output, "Go, SQL")
	assert.Contains(t, output, "modern")
	assert.Contains(t, output, "(v3)")
}

func TestPrintProfile_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(nil)

	assert.Empty(t, buf.String())
}

func TestPrintMergeWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	warnings := []merge.Warning{
		{Fragment: 0, Kind: types.FragmentExperience, Message: "experience fragment has no payload"},
		{Fragment: 3, Kind: types.FragmentSkills, Message: "skills fragment has no payload"},
	}

	p.PrintMergeWarnings(warnings)
	output := buf.String()

	assert.Contains(t, output, "MERGE WARNINGS")
	assert.Contains(t, output, "2 fragment(s) skipped")
	assert.Contains(t, output, "#0 [experience]")
	assert.Contains(t, output, "#3 [skills]")
}

func TestPrintMergeWarnings_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMergeWarnings(nil)

	assert.Empty(t, buf.String())
}

func TestPrintMergeWarnings_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	warnings := make([]merge.Warning, 8)
	for i := range warnings {
		warnings[i] = merge.Warning{Fragment: i, Kind: types.FragmentSkills, Message: "skipped"}
	}

	p.PrintMergeWarnings(warnings)
	output := buf.String()

	assert.Contains(t, output, "... and 3 more")
}

func TestPrintCheckpoint(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	cp := &types.WorkflowCheckpoint{
		WorkflowID:         "wf-42",
		LastCompletedStage: "merge",
		Timings: []types.StageTiming{
			{Stage: "extract", DurationMs: 120, Status: types.StageStatusSuccess},
			{Stage: "merge", DurationMs: 310, Status: types.StageStatusSuccess},
			{Stage: "enhance", DurationMs: 45, Status: types.StageStatusError},
		},
		Errors: []string{"enhance: model timeout"},
	}

	p.PrintCheckpoint(cp)
	output := buf.String()

	assert.Contains(t, output, "WORKFLOW CHECKPOINT")
	assert.Contains(t, output, "wf-42")
	assert.Contains(t, output, "Last completed stage: merge")
	assert.Contains(t, output, "✓ extract")
	assert.Contains(t, output, "✗ enhance")
	assert.Contains(t, output, "enhance: model timeout")
}

func TestPrintCheckpoint_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCheckpoint(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	prof := &types.Profile{
		PersonalInfo: map[string]string{
			"full_name": "A Very Long Name That Should Be Truncated To Fit Inside The Output Box",
		},
	}

	p.PrintProfile(prof)
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
}
