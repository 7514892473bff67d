package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// Item kinds stored in the items table
const (
	kindPageBreak = "page_break"
	kindSection   = "section_header"
	kindText      = "text"
	kindChoice    = "choice"
)

// timeLayout sorts lexically in UTC
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// FormStore keeps forms and submissions in SQLite. Choice questions store
// their QuestionKey in columns, so reading answers back does not depend on
// parsing titles.
type FormStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenFormStore opens (and migrates) the SQLite database at path
func OpenFormStore(path string, logger *zap.Logger) (*FormStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &FormStore{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("Form store initialized", zap.String("db_path", path))
	return s, nil
}

// Close closes the database
func (s *FormStore) Close() error {
	return s.db.Close()
}

func (s *FormStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS forms (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		collect_email BOOLEAN NOT NULL DEFAULT 0,
		allow_edits BOOLEAN NOT NULL DEFAULT 0,
		limit_one BOOLEAN NOT NULL DEFAULT 0,
		confirmation TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_forms_title ON forms(title);

	CREATE TABLE IF NOT EXISTS items (
		form_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		help TEXT NOT NULL DEFAULT '',
		required BOOLEAN NOT NULL DEFAULT 0,
		item_id TEXT,
		rater TEXT,
		dimension TEXT,
		choices TEXT,
		PRIMARY KEY (form_id, position)
	);

	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_responses_form ON responses(form_id);

	CREATE TABLE IF NOT EXISTS answers (
		response_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (response_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateForm inserts the form row; items are inserted on Commit
func (s *FormStore) CreateForm(ctx context.Context, meta model.FormMeta) (host.FormWriter, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forms (id, title, description, collect_email, allow_edits, limit_one, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, meta.Title, meta.Description, meta.CollectEmail, meta.AllowResponseEdits, meta.LimitOneResponse,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	return &formWriter{store: s, id: id, title: meta.Title}, nil
}

// FindForms returns forms with the exact title, oldest first
func (s *FormStore) FindForms(ctx context.Context, title string) ([]model.FormArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title FROM forms WHERE title = ? ORDER BY created_at, id`, title)
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	var out []model.FormArtifact
	for rows.Next() {
		var a model.FormArtifact
		if err := rows.Scan(&a.ID, &a.Title); err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// OpenForm returns a form by id
func (s *FormStore) OpenForm(ctx context.Context, id string) (*model.FormArtifact, error) {
	var a model.FormArtifact
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM forms WHERE id = ?`, id).Scan(&a.ID, &a.Title)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("form %s: %w", id, host.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	return &a, nil
}

// Destination returns the spreadsheet bound to a form, if any
func (s *FormStore) Destination(ctx context.Context, formID string) (string, error) {
	var dest string
	err := s.db.QueryRowContext(ctx, `SELECT destination FROM forms WHERE id = ?`, formID).Scan(&dest)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("form %s: %w", formID, host.ErrNotFound)
	}
	return dest, err
}

// QuestionTitles returns question titles in form order
func (s *FormStore) QuestionTitles(ctx context.Context, formID string) ([]string, error) {
	questions, err := s.questions(ctx, formID)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(questions))
	for i, q := range questions {
		titles[i] = q.title
	}
	return titles, nil
}

// LinkDestination records the response spreadsheet for a form
func (s *FormStore) LinkDestination(ctx context.Context, formID, spreadsheetID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE forms SET destination = ? WHERE id = ?`, spreadsheetID, formID)
	if err != nil {
		return fmt.Errorf("failed to link destination: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("form %s: %w", formID, host.ErrNotFound)
	}
	return nil
}

// Submit records one submission. Every required question must be answered
// and every answered title must belong to the form.
func (s *FormStore) Submit(ctx context.Context, formID string, answers []model.Answer) (*model.Submission, error) {
	if _, err := s.OpenForm(ctx, formID); err != nil {
		return nil, err
	}

	questions, err := s.questions(ctx, formID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]question, len(questions))
	seen := make(map[string]bool, len(answers))
	answered := make(map[string]bool, len(answers))
	for _, q := range questions {
		known[q.title] = q
	}
	for _, a := range answers {
		q, ok := known[a.Title]
		if !ok {
			return nil, fmt.Errorf("question %q is not part of form %s", a.Title, formID)
		}
		if seen[a.Title] {
			return nil, fmt.Errorf("question %q answered more than once", a.Title)
		}
		seen[a.Title] = true

		if strings.TrimSpace(a.Value) == "" {
			continue
		}
		if q.choices != nil && !slices.Contains(q.choices, a.Value) {
			return nil, fmt.Errorf("%q is not a choice of question %q", a.Value, a.Title)
		}
		answered[a.Title] = true
	}

	var missing []string
	for _, q := range questions {
		if q.required && !answered[q.title] {
			missing = append(missing, q.title)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%d required questions unanswered, first: %q", len(missing), missing[0])
	}

	sub := &model.Submission{ID: uuid.NewString(), Timestamp: s.now().UTC()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO responses (id, form_id, submitted_at) VALUES (?, ?, ?)`,
		sub.ID, formID, sub.Timestamp.Format(timeLayout)); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	for i, a := range answers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO answers (response_id, position, title, value) VALUES (?, ?, ?, ?)`,
			sub.ID, i, a.Title, a.Value); err != nil {
			return nil, fmt.Errorf("failed to save answer: %w", err)
		}
		sub.Answers = append(sub.Answers, model.Answer{Title: a.Title, Value: a.Value})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	s.logger.Debug("Submission recorded",
		zap.String("form_id", formID),
		zap.String("response_id", sub.ID),
		zap.Int("answers", len(answers)))

	return sub, nil
}

// Submissions returns every submission in submit order, with question keys
// attached to answers of choice questions
func (s *FormStore) Submissions(ctx context.Context, formID string) ([]model.Submission, error) {
	if _, err := s.OpenForm(ctx, formID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.submitted_at, a.title, a.value, i.item_id, i.rater, i.dimension
		FROM responses r
		JOIN answers a ON a.response_id = r.id
		LEFT JOIN items i ON i.form_id = r.form_id AND i.title = a.title AND i.kind = ?
		WHERE r.form_id = ?
		ORDER BY r.submitted_at, r.rowid, a.position`, kindChoice, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var (
			id, submitted, title, value string
			itemID, rater, dimension    sql.NullString
		)
		if err := rows.Scan(&id, &submitted, &title, &value, &itemID, &rater, &dimension); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}

		if len(subs) == 0 || subs[len(subs)-1].ID != id {
			ts, err := time.Parse(timeLayout, submitted)
			if err != nil {
				return nil, fmt.Errorf("bad timestamp on response %s: %w", id, err)
			}
			subs = append(subs, model.Submission{ID: id, Timestamp: ts})
		}

		answer := model.Answer{Title: title, Value: value}
		if itemID.Valid && rater.Valid && dimension.Valid {
			answer.Key = &model.QuestionKey{
				ItemID:    itemID.String,
				Rater:     rater.String,
				Dimension: model.Dimension(dimension.String),
			}
		}
		last := &subs[len(subs)-1]
		last.Answers = append(last.Answers, answer)
	}

	return subs, rows.Err()
}

type question struct {
	title    string
	required bool
	choices  []string // nil for text questions
}

func (s *FormStore) questions(ctx context.Context, formID string) ([]question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, required, COALESCE(choices, '') FROM items WHERE form_id = ? AND kind IN (?, ?) ORDER BY position`,
		formID, kindText, kindChoice)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var out []question
	for rows.Next() {
		var (
			q       question
			choices string
		)
		if err := rows.Scan(&q.title, &q.required, &choices); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if choices != "" {
			if err := json.Unmarshal([]byte(choices), &q.choices); err != nil {
				return nil, fmt.Errorf("bad choices on %q: %w", q.title, err)
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// item is one pending form item
type item struct {
	kind     string
	title    string
	help     string
	required bool
	key      *model.QuestionKey
	choices  []string
}

type formWriter struct {
	store        *FormStore
	id           string
	title        string
	items        []item
	confirmation string
}

func (w *formWriter) AddPageBreak(title, help string) {
	w.items = append(w.items, item{kind: kindPageBreak, title: title, help: help})
}

func (w *formWriter) AddSectionHeader(title, help string) {
	w.items = append(w.items, item{kind: kindSection, title: title, help: help})
}

func (w *formWriter) AddTextQuestion(title string, required bool) {
	w.items = append(w.items, item{kind: kindText, title: title, required: required})
}

func (w *formWriter) AddChoiceQuestion(key model.QuestionKey, help string, choices []string, required bool) {
	k := key
	w.items = append(w.items, item{
		kind:     kindChoice,
		title:    key.Title(),
		help:     help,
		required: required,
		key:      &k,
		choices:  append([]string(nil), choices...),
	})
}

func (w *formWriter) SetConfirmation(message string) {
	w.confirmation = message
}

// Commit inserts all items in one transaction
func (w *formWriter) Commit(ctx context.Context) (*model.FormArtifact, error) {
	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for pos, it := range w.items {
		var itemID, rater, dimension, choices sql.NullString
		if it.key != nil {
			itemID = sql.NullString{String: it.key.ItemID, Valid: true}
			rater = sql.NullString{String: it.key.Rater, Valid: true}
			dimension = sql.NullString{String: string(it.key.Dimension), Valid: true}
		}
		if it.choices != nil {
			data, err := json.Marshal(it.choices)
			if err != nil {
				return nil, fmt.Errorf("failed to encode choices: %w", err)
			}
			choices = sql.NullString{String: string(data), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (form_id, position, kind, title, help, required, item_id, rater, dimension, choices)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.id, pos, it.kind, it.title, it.help, it.required, itemID, rater, dimension, choices)
		if err != nil {
			return nil, fmt.Errorf("failed to save item %d: %w", pos, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE forms SET confirmation = ? WHERE id = ?`, w.confirmation, w.id); err != nil {
		return nil, fmt.Errorf("failed to save confirmation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit form: %w", err)
	}

	return &model.FormArtifact{ID: w.id, Title: w.title}, nil
}

// Items returns a form's stored items in order
func (s *FormStore) Items(ctx context.Context, formID string) ([]FormItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, title, help, required, COALESCE(choices, '') FROM items WHERE form_id = ? ORDER BY position`, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var out []FormItem
	for rows.Next() {
		var (
			fi      FormItem
			choices string
		)
		if err := rows.Scan(&fi.Kind, &fi.Title, &fi.Help, &fi.Required, &choices); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if choices != "" {
			if err := json.Unmarshal([]byte(choices), &fi.Choices); err != nil {
				return nil, fmt.Errorf("bad choices on %q: %w", fi.Title, err)
			}
		}
		out = append(out, fi)
	}
	return out, rows.Err()
}

// FormItem is a stored form item
type FormItem struct {
	Kind     string
	Title    string
	Help     string
	Required bool
	Choices  []string
}
