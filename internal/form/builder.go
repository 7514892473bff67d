// Package form builds the rating questionnaire from a loaded dataset.
package form

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// ErrNoEvaluations is returned when the dataset holds no evaluation records
var ErrNoEvaluations = errors.New("no evaluation data loaded")

// Builder emits questionnaire items through a host.FormSink
type Builder struct {
	sink   host.FormSink
	form   model.FormConfig
	raters model.RaterConfig
	scales model.ScaleConfig
	logger *zap.Logger
}

// NewBuilder creates a builder from the form, rater and scale configuration
func NewBuilder(sink host.FormSink, cfg *model.Config, logger *zap.Logger) *Builder {
	return &Builder{
		sink:   sink,
		form:   cfg.Form,
		raters: cfg.Raters,
		scales: cfg.Scales,
		logger: logger,
	}
}

// Stats summarizes a build
type Stats struct {
	Items       int
	RaterBlocks int
	Questions   int
	NonNumeric  int // items whose answers cannot be read back from titles
}

// Build creates the questionnaire. Nothing is created when the dataset is empty.
func (b *Builder) Build(ctx context.Context, ds *model.Dataset) (*model.FormArtifact, Stats, error) {
	var stats Stats

	if ds == nil || len(ds.Evaluations) == 0 {
		return nil, stats, ErrNoEvaluations
	}
	if len(b.scales.Agreement) != 5 || len(b.scales.Depth) != 5 {
		return nil, stats, fmt.Errorf("scales need 5 labels each, got agreement=%d depth=%d",
			len(b.scales.Agreement), len(b.scales.Depth))
	}

	w, err := b.sink.CreateForm(ctx, model.FormMeta{
		Title:              b.form.Title,
		Description:        b.form.Description,
		CollectEmail:       false,
		AllowResponseEdits: true,
		LimitOneResponse:   false,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("create form: %w", err)
	}

	// Identity fields precede every item section
	w.AddPageBreak(b.form.IdentityPage, "")
	w.AddTextQuestion(b.form.NameLabel, true)
	w.AddTextQuestion(b.form.EmailLabel, false)

	for _, itemID := range ds.Evaluations.SortedItemIDs() {
		imageURI := ds.ImageURI(itemID, b.form.ImageMissing)

		w.AddPageBreak(
			fmt.Sprintf("Evaluation of image %s", itemID),
			fmt.Sprintf("Read each agent's risk assessment of the image below and rate your agreement and its depth.\n\n"+
				"Image URL: %s\n(Open the URL in a separate tab to view the image.)", imageURI),
		)

		blocks := b.addRaters(w, itemID, ds.Evaluations[itemID])
		if blocks > 0 && !model.TitleItemID(itemID) {
			stats.NonNumeric++
			b.logger.Warn("Item id is not a number, its answers will be skipped on export",
				zap.String("item_id", itemID))
		}
		stats.Items++
		stats.RaterBlocks += blocks
		stats.Questions += blocks * len(model.Dimensions)

		b.logger.Debug("Item section added",
			zap.String("item_id", itemID),
			zap.Int("rater_blocks", blocks))
	}

	w.SetConfirmation(b.form.Confirmation)

	artifact, err := w.Commit(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("commit form: %w", err)
	}

	b.logger.Info("Questionnaire created",
		zap.String("form_id", artifact.ID),
		zap.Int("items", stats.Items),
		zap.Int("rater_blocks", stats.RaterBlocks))

	return artifact, stats, nil
}

// addRaters emits a section header and two questions per eligible rater.
// Raters are visited in key order so rebuilt forms are identical.
func (b *Builder) addRaters(w host.FormWriter, itemID string, record model.EvaluationRecord) int {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	blocks := 0
	for _, key := range keys {
		if !b.raters.Eligible(key) {
			continue
		}

		judgment := record[key]
		rationale := judgment.Rationale()
		if rationale == "" {
			continue
		}

		name := b.raters.DisplayName(key)
		w.AddSectionHeader(
			fmt.Sprintf("Assessment by %s", name),
			fmt.Sprintf("[Judgment] %s\n\n[Reason] %s", judgment.Judgment(), rationale),
		)

		for _, d := range model.Dimensions {
			help := b.form.AgreementHelp
			if d == model.DimensionDepth {
				help = b.form.DepthHelp
			}
			w.AddChoiceQuestion(
				model.QuestionKey{ItemID: itemID, Rater: name, Dimension: d},
				help,
				b.scales.Labels(d),
				true,
			)
		}
		blocks++
	}

	return blocks
}
