package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/riskform/internal/host/hosttest"
	"github.com/ppiankov/riskform/internal/model"
)

func testDataset() *model.Dataset {
	ds := model.NewDataset()
	ds.Evaluations = model.Manifest{
		"0": {
			"VLM": {RiskJudge: "high", RiskReason: "knife near the table edge"},
		},
		"1": {},
	}
	ds.Images["0"] = "https://example.test/0"
	return ds
}

func kinds(items []hosttest.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Kind
	}
	return out
}

func TestBuild(t *testing.T) {
	forms := hosttest.NewForms()
	cfg := model.DefaultConfig()

	artifact, stats, err := NewBuilder(forms, cfg, zaptest.NewLogger(t)).Build(context.Background(), testDataset())
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, Stats{Items: 2, RaterBlocks: 1, Questions: 2}, stats)

	all := forms.All()
	require.Len(t, all, 1)
	form := all[0]

	assert.True(t, form.Committed)
	assert.Equal(t, cfg.Form.Title, form.Meta.Title)
	assert.False(t, form.Meta.CollectEmail)
	assert.True(t, form.Meta.AllowResponseEdits)
	assert.False(t, form.Meta.LimitOneResponse)
	assert.Equal(t, cfg.Form.Confirmation, form.Confirmation)

	assert.Equal(t, []string{
		"page_break", "text", "text", // identity
		"page_break", "section_header", "choice", "choice", // item 0
		"page_break", // item 1 has no eligible raters
	}, kinds(form.Items))

	name, email := form.Items[1], form.Items[2]
	assert.Equal(t, "Name", name.Title)
	assert.True(t, name.Required)
	assert.Equal(t, "Email (optional)", email.Title)
	assert.False(t, email.Required)

	page := form.Items[3]
	assert.Equal(t, "Evaluation of image 0", page.Title)
	assert.Contains(t, page.Help, "https://example.test/0")

	header := form.Items[4]
	assert.Equal(t, "Assessment by Agent N", header.Title)
	assert.Contains(t, header.Help, "[Judgment] high")
	assert.Contains(t, header.Help, "[Reason] knife near the table edge")

	agree, depth := form.Items[5], form.Items[6]
	assert.Equal(t, "[item 0] Agent N - agreement", agree.Title)
	assert.Equal(t, "[item 0] Agent N - depth", depth.Title)
	assert.True(t, agree.Required)
	assert.True(t, depth.Required)
	assert.Equal(t, cfg.Scales.Agreement, agree.Choices)
	assert.Equal(t, cfg.Scales.Depth, depth.Choices)
	require.NotNil(t, agree.Key)
	assert.Equal(t, model.QuestionKey{ItemID: "0", Rater: "Agent N", Dimension: model.DimensionAgreement}, *agree.Key)

	last := form.Items[7]
	assert.Equal(t, "Evaluation of image 1", last.Title)
	assert.Contains(t, last.Help, cfg.Form.ImageMissing)
}

func TestBuildRaterFiltering(t *testing.T) {
	ds := model.NewDataset()
	ds.Evaluations = model.Manifest{
		"5": {
			"VLM":                       {RiskJudge: "low", RiskReason: ""},             // empty rationale
			"GPT":                       {RiskJudge: "low", RiskReason: "not eligible"}, // unknown key
			"Semantic_state_Persona_02": {Judge: "mid", Reason: "old", RevisedReason: "new"},
			"Semantic_state_Experiment": {Reason: "prefix match"},
		},
	}

	forms := hosttest.NewForms()
	_, stats, err := NewBuilder(forms, model.DefaultConfig(), zaptest.NewLogger(t)).Build(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RaterBlocks)

	var headers []hosttest.Item
	for _, it := range forms.All()[0].Items {
		if it.Kind == "section_header" {
			headers = append(headers, it)
		}
	}
	require.Len(t, headers, 2)

	// Keys are visited in sorted order
	assert.Equal(t, "Assessment by Agent (Semantic_state_Experiment)", headers[0].Title)
	assert.Equal(t, "Assessment by Agent J", headers[1].Title)
	assert.True(t, strings.HasSuffix(headers[1].Help, "[Reason] new"))
}

func TestBuildItemOrder(t *testing.T) {
	ds := model.NewDataset()
	ds.Evaluations = model.Manifest{"10": {}, "2": {}, "1": {}}

	forms := hosttest.NewForms()
	_, _, err := NewBuilder(forms, model.DefaultConfig(), zaptest.NewLogger(t)).Build(context.Background(), ds)
	require.NoError(t, err)

	var pages []string
	for _, it := range forms.All()[0].Items[1:] {
		if it.Kind == "page_break" {
			pages = append(pages, it.Title)
		}
	}
	assert.Equal(t, []string{
		"Evaluation of image 1",
		"Evaluation of image 2",
		"Evaluation of image 10",
	}, pages)
}

func TestBuildNonNumericItem(t *testing.T) {
	ds := model.NewDataset()
	ds.Evaluations = model.Manifest{
		"0":  {"VLM": {RiskJudge: "low", RiskReason: "tidy"}},
		"a1": {"VLM": {RiskJudge: "low", RiskReason: "tidy"}},
		"b2": {},
	}

	core, logs := observer.New(zap.WarnLevel)
	_, stats, err := NewBuilder(hosttest.NewForms(), model.DefaultConfig(), zap.New(core)).Build(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 1, stats.NonNumeric, "items without questions are not counted")

	warned := logs.FilterMessageSnippet("not a number").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "a1", warned[0].ContextMap()["item_id"])
}

func TestBuildEmptyDataset(t *testing.T) {
	forms := hosttest.NewForms()
	b := NewBuilder(forms, model.DefaultConfig(), zaptest.NewLogger(t))

	_, _, err := b.Build(context.Background(), model.NewDataset())
	assert.ErrorIs(t, err, ErrNoEvaluations)

	_, _, err = b.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoEvaluations)

	assert.Empty(t, forms.All(), "nothing is created for an empty dataset")
}

func TestBuildBadScales(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Scales.Depth = cfg.Scales.Depth[:3]

	forms := hosttest.NewForms()
	_, _, err := NewBuilder(forms, cfg, zaptest.NewLogger(t)).Build(context.Background(), testDataset())
	assert.Error(t, err)
	assert.Empty(t, forms.All())
}

func TestBuildCreateFails(t *testing.T) {
	forms := hosttest.NewForms()
	forms.FailCreate = errors.New("quota exceeded")

	_, _, err := NewBuilder(forms, model.DefaultConfig(), zaptest.NewLogger(t)).Build(context.Background(), testDataset())
	assert.ErrorContains(t, err, "quota exceeded")
}
