// Package aggregate turns questionnaire submissions into a flat per-answer
// table and a per-participant pivot table.
package aggregate

import (
	"github.com/ppiankov/riskform/internal/model"
)

// Flatten emits one row per answered agreement question. The matching depth
// answer is looked up in the same submission; a missing one leaves Depth empty.
func Flatten(subs []model.Submission, nameLabel string) []model.ResponseRow {
	var rows []model.ResponseRow

	for _, sub := range subs {
		participant := participantName(sub, nameLabel)

		for _, a := range sub.Answers {
			key, ok := answerKey(a)
			if !ok || key.Dimension != model.DimensionAgreement {
				continue
			}

			rows = append(rows, model.ResponseRow{
				Participant: participant,
				Timestamp:   sub.Timestamp,
				ItemID:      key.ItemID,
				Rater:       key.Rater,
				Agreement:   model.RatingValue(a.Value),
				Depth:       findRating(sub, key.Sibling(model.DimensionDepth)),
			})
		}
	}

	return rows
}

func participantName(sub model.Submission, nameLabel string) string {
	for _, a := range sub.Answers {
		if a.Title == nameLabel {
			return a.Value
		}
	}
	return ""
}

// answerKey prefers structured metadata and falls back to the title grammar
func answerKey(a model.Answer) (model.QuestionKey, bool) {
	if a.Key != nil {
		return *a.Key, true
	}
	return model.ParseTitle(a.Title)
}

func findRating(sub model.Submission, key model.QuestionKey) string {
	title := key.Title()
	for _, a := range sub.Answers {
		if a.Title == title || (a.Key != nil && *a.Key == key) {
			return model.RatingValue(a.Value)
		}
	}
	return ""
}
