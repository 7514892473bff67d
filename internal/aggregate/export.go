package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// ErrNoResponses is returned when the form has no submissions yet
var ErrNoResponses = errors.New("no responses yet")

// Sheet names and header styles of the formatted export
const (
	FlatSheetName  = "Evaluation summary"
	PivotSheetName = "Per-participant summary"
	RawSheetName   = "Form responses 1"
)

var (
	flatStyle = model.SheetStyle{
		HeaderBackground: "#4285f4",
		HeaderForeground: "white",
		HeaderBold:       true,
		FrozenRows:       1,
		AutoResize:       true,
	}
	pivotStyle = model.SheetStyle{
		HeaderBackground: "#34a853",
		HeaderForeground: "white",
		HeaderBold:       true,
		FrozenRows:       1,
		FrozenColumns:    2,
	}
)

// Result describes one export
type Result struct {
	Form           *model.FormArtifact
	SpreadsheetURL string
	Rows           []model.ResponseRow
	Pivot          model.PivotTable
}

// Exporter reads submissions and writes the flat and pivot sheets
type Exporter struct {
	source host.FormSource
	sheets host.TabularSink
	form   model.FormConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter
func NewExporter(source host.FormSource, sheets host.TabularSink, form model.FormConfig, logger *zap.Logger) *Exporter {
	return &Exporter{
		source: source,
		sheets: sheets,
		form:   form,
		logger: logger,
		now:    time.Now,
	}
}

// Export resolves the form by id, or by the configured title when formID is
// empty, and writes a new spreadsheet with both summaries.
func (e *Exporter) Export(ctx context.Context, formID string) (*Result, error) {
	form, err := host.ResolveForm(ctx, e.source, formID, e.form.Title)
	if err != nil {
		return nil, err
	}

	subs, err := e.source.Submissions(ctx, form.ID)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("form %s: %w", form.ID, ErrNoResponses)
	}

	rows := Flatten(subs, e.form.NameLabel)
	pivot := Pivot(rows)

	title := fmt.Sprintf("%s - Formatted Responses (%s)", form.Title, e.now().Format("2006-01-02"))
	ss, err := e.sheets.CreateSpreadsheet(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Cells()
	}
	if err := ss.AddSheet(ctx, FlatSheetName, model.FlatHeader, cells, flatStyle); err != nil {
		return nil, fmt.Errorf("write %s: %w", FlatSheetName, err)
	}
	if err := ss.AddSheet(ctx, PivotSheetName, pivot.Header, pivot.Rows, pivotStyle); err != nil {
		return nil, fmt.Errorf("write %s: %w", PivotSheetName, err)
	}

	e.logger.Info("Formatted responses exported",
		zap.String("form_id", form.ID),
		zap.Int("submissions", len(subs)),
		zap.Int("rows", len(rows)),
		zap.Int("participants", len(pivot.Rows)),
		zap.String("url", ss.URL()))

	return &Result{
		Form:           form,
		SpreadsheetURL: ss.URL(),
		Rows:           rows,
		Pivot:          pivot,
	}, nil
}

// LinkResult describes an attached response spreadsheet
type LinkResult struct {
	Form           *model.FormArtifact
	SpreadsheetURL string
	Live           bool // false when current responses were copied instead
}

// Linker attaches a response spreadsheet to a questionnaire
type Linker struct {
	source host.FormSource
	sheets host.TabularSink
	form   model.FormConfig
	logger *zap.Logger
}

// NewLinker creates a linker
func NewLinker(source host.FormSource, sheets host.TabularSink, form model.FormConfig, logger *zap.Logger) *Linker {
	return &Linker{source: source, sheets: sheets, form: form, logger: logger}
}

// Link creates "<title> - Responses" and makes it the response destination.
// Backends that cannot bind a destination get a snapshot of the raw responses.
func (l *Linker) Link(ctx context.Context, formID string) (*LinkResult, error) {
	form, err := host.ResolveForm(ctx, l.source, formID, l.form.Title)
	if err != nil {
		return nil, err
	}

	ss, err := l.sheets.CreateSpreadsheet(ctx, form.Title+" - Responses")
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}

	result := &LinkResult{Form: form, SpreadsheetURL: ss.URL(), Live: true}

	err = l.source.LinkDestination(ctx, form.ID, ss.ID())
	switch {
	case err == nil:
		l.logger.Info("Response destination linked",
			zap.String("form_id", form.ID),
			zap.String("url", ss.URL()))
		return result, nil
	case errors.Is(err, host.ErrUnsupported):
		l.logger.Warn("Backend cannot bind a response destination, copying current responses instead",
			zap.String("form_id", form.ID))
	default:
		return nil, fmt.Errorf("link destination: %w", err)
	}

	result.Live = false
	if err := l.snapshot(ctx, form.ID, ss); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Linker) snapshot(ctx context.Context, formID string, ss host.Spreadsheet) error {
	titles, err := l.source.QuestionTitles(ctx, formID)
	if err != nil {
		return fmt.Errorf("read questions: %w", err)
	}
	subs, err := l.source.Submissions(ctx, formID)
	if err != nil {
		return fmt.Errorf("read submissions: %w", err)
	}

	header, rows := RawTable(titles, subs)
	if err := ss.AddSheet(ctx, RawSheetName, header, rows, model.SheetStyle{FrozenRows: 1}); err != nil {
		return fmt.Errorf("write %s: %w", RawSheetName, err)
	}

	l.logger.Info("Responses copied",
		zap.String("form_id", formID),
		zap.Int("submissions", len(subs)),
		zap.String("url", ss.URL()))
	return nil
}

// RawTable lays out submissions with one column per question title, the
// way a form's own response sheet does.
func RawTable(titles []string, subs []model.Submission) ([]string, [][]string) {
	header := append([]string{"Timestamp"}, titles...)

	col := make(map[string]int, len(titles))
	for i, t := range titles {
		if _, dup := col[t]; !dup {
			col[t] = i + 1
		}
	}

	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		row := make([]string, len(header))
		row[0] = sub.Timestamp.Format(model.TimestampLayout)
		for _, a := range sub.Answers {
			if i, ok := col[a.Title]; ok {
				row[i] = a.Value
			}
		}
		rows = append(rows, row)
	}

	return header, rows
}
