package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/faion-net/skillrouter/pkg/types/routing"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestErrorOutput(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "building index")
	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] building index: boom\n", errOut.String())

	errOut.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errOut.String())
}

func TestErrorPrintsInQuietMode(t *testing.T) {
	p, _, errOut := newTestPresenter()
	p.SetQuiet(true)

	p.Error(errors.New("boom"), "")
	assert.Equal(t, "[ERROR] boom\n", errOut.String())
}

func TestQuietSuppressesOutput(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.SetQuiet(true)

	p.Success("done")
	p.Warning("careful")
	p.Info("hello")
	p.Section("Skills")
	p.Separator()
	p.Stats(&DecisionStats{SkillCount: 1})

	assert.True(t, p.IsQuiet())
	assert.Empty(t, out.String())
}

func TestSection(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.Section("Selected Skills")
	assert.Equal(t, "Selected Skills\n---------------\n", out.String())
}

func TestStats(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Stats(&DecisionStats{
		SkillCount:  2,
		ModelTier:   routing.TierAnalytical,
		BundleChars: 1200,
		BudgetChars: 24000,
	})
	assert.Contains(t, out.String(), "Skills: 2")
	assert.Contains(t, out.String(), "Tier: analytical")
	assert.Contains(t, out.String(), "Bundle: 1200/24000 chars")
	assert.NotContains(t, out.String(), "Partial")

	out.Reset()
	p.Stats(&DecisionStats{SkillCount: 1, Partial: 1, Unavailable: 1})
	assert.Contains(t, out.String(), "Partial entries: 1")

	out.Reset()
	p.Stats(nil)
	assert.Empty(t, out.String())
}
