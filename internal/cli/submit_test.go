package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskform/internal/aggregate"
	"github.com/ppiankov/riskform/internal/host/local"
	"github.com/ppiankov/riskform/internal/model"
)

const answersYAML = `
name: Taro
email: taro@example.test
answers:
  "[item 1] Agent N - agreement": "2 - Somewhat disagree"
  "[item 1] Agent N - depth": 3
  "[item 0] Agent N - agreement": 5
`

func TestParseAnswerSheet(t *testing.T) {
	sheet, err := parseAnswerSheet([]byte(answersYAML))
	require.NoError(t, err)

	assert.Equal(t, "Taro", sheet.Name)
	assert.Equal(t, "taro@example.test", sheet.Email)
	assert.Equal(t, []model.Answer{
		{Title: "[item 1] Agent N - agreement", Value: "2 - Somewhat disagree"},
		{Title: "[item 1] Agent N - depth", Value: "3"},
		{Title: "[item 0] Agent N - agreement", Value: "5"},
	}, sheet.Answers, "answers keep file order")
}

func TestParseAnswerSheetErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not a mapping", "- a\n- b\n", "must be a mapping"},
		{"no name", "answers: {}\n", "name is required"},
		{"unknown key", "name: Taro\nscore: 3\n", `unknown key "score"`},
		{"answers list", "name: Taro\nanswers: [1, 2]\n", "must map question titles"},
		{"invalid yaml", "name: [\n", "invalid YAML"},
		{"repeated title", "name: Taro\nanswers:\n  \"[item 0] Agent N - agreement\": 5\n  \"[item 0] Agent N - agreement\": 1\n", "answered twice (line 4)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnswerSheet([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestAnswerSheetResolve(t *testing.T) {
	scales := model.DefaultConfig().Scales
	labels := model.DefaultConfig().Form
	items := []local.FormItem{
		{Kind: "text", Title: labels.NameLabel, Required: true},
		{Kind: "choice", Title: "[item 0] Agent N - agreement", Required: true, Choices: scales.Agreement},
		{Kind: "choice", Title: "[item 0] Agent N - depth", Required: true, Choices: scales.Depth},
	}

	sheet := &answerSheet{Name: "Taro", Answers: []model.Answer{
		{Title: "[item 0] Agent N - agreement", Value: "5"},
		{Title: "[item 0] Agent N - depth", Value: "4 - Somewhat deep"},
		{Title: "Comments", Value: "free text"},
	}}

	got, err := sheet.resolve(items, labels)
	require.NoError(t, err)
	assert.Equal(t, []model.Answer{
		{Title: "Name", Value: "Taro"},
		{Title: "[item 0] Agent N - agreement", Value: "5 - Strongly agree"},
		{Title: "[item 0] Agent N - depth", Value: "4 - Somewhat deep"},
		{Title: "Comments", Value: "free text"},
	}, got, "no email answer when none is given")

	sheet.Answers = []model.Answer{{Title: "[item 0] Agent N - depth", Value: "6"}}
	_, err = sheet.resolve(items, labels)
	assert.ErrorContains(t, err, "not one of 5 choices")
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary("Survey", []aggregate.RaterSummary{
		{Rater: "Agent A", Rows: 1},
		{Rater: "Agent N", Rows: 2, Agreement: 3.5, Depth: 4, Rated: 2, DepthN: 1},
	})

	assert.Contains(t, out, "Survey")
	assert.Contains(t, out, "Agent N")
	assert.Contains(t, out, "3.50")
	assert.Contains(t, out, "4.00")
	assert.Contains(t, out, "-")

	assert.Contains(t, renderSummary("Survey", nil), "no ratings")
}
