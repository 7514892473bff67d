package google

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// batchSize bounds the number of requests per forms.batchUpdate call
const batchSize = 200

// FormService implements host.FormSink and host.FormSource on Google Forms
type FormService struct {
	client *Client
}

// CreateForm creates an empty form. Items are sent on Commit.
func (s *FormService) CreateForm(ctx context.Context, meta model.FormMeta) (host.FormWriter, error) {
	if err := s.client.wait(ctx, "forms"); err != nil {
		return nil, err
	}

	created, err := s.client.forms.Forms.Create(&forms.Form{
		Info: &forms.Info{Title: meta.Title, DocumentTitle: meta.Title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create form: %w", mapError(err))
	}

	// The Forms API has no settings for email collection, response edits or
	// one-response limits; they keep the platform defaults.
	s.client.logger.Debug("Form settings left at platform defaults",
		zap.String("form_id", created.FormId),
		zap.Bool("collect_email", meta.CollectEmail),
		zap.Bool("allow_response_edits", meta.AllowResponseEdits),
		zap.Bool("limit_one_response", meta.LimitOneResponse))

	w := &formWriter{client: s.client, form: created, title: meta.Title}
	if meta.Description != "" {
		w.requests = append(w.requests, &forms.Request{
			UpdateFormInfo: &forms.UpdateFormInfoRequest{
				Info:       &forms.Info{Description: meta.Description},
				UpdateMask: "description",
			},
		})
	}

	return w, nil
}

// FindForms returns every form in Drive whose name equals title
func (s *FormService) FindForms(ctx context.Context, title string) ([]model.FormArtifact, error) {
	if err := s.client.wait(ctx, "drive"); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(title), mimeForm)

	var out []model.FormArtifact
	err := s.client.drive.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				out = append(out, model.FormArtifact{
					ID:      f.Id,
					Title:   f.Name,
					EditURL: editURL(f.Id),
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("search forms: %w", mapError(err))
	}

	return out, nil
}

// OpenForm returns a form's metadata
func (s *FormService) OpenForm(ctx context.Context, id string) (*model.FormArtifact, error) {
	f, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return artifact(f), nil
}

// QuestionTitles returns question titles in form order
func (s *FormService) QuestionTitles(ctx context.Context, formID string) ([]string, error) {
	f, err := s.get(ctx, formID)
	if err != nil {
		return nil, err
	}

	var titles []string
	for _, item := range f.Items {
		if item.QuestionItem != nil && item.QuestionItem.Question != nil {
			titles = append(titles, item.Title)
		}
	}
	return titles, nil
}

// Submissions reads every response, answers in form order
func (s *FormService) Submissions(ctx context.Context, formID string) ([]model.Submission, error) {
	f, err := s.get(ctx, formID)
	if err != nil {
		return nil, err
	}

	// question id -> (position, title)
	type question struct {
		pos   int
		title string
	}
	questions := make(map[string]question)
	for i, item := range f.Items {
		if item.QuestionItem != nil && item.QuestionItem.Question != nil {
			questions[item.QuestionItem.Question.QuestionId] = question{pos: i, title: item.Title}
		}
	}

	if err := s.client.wait(ctx, "forms"); err != nil {
		return nil, err
	}

	var subs []model.Submission
	err = s.client.forms.Forms.Responses.List(formID).Pages(ctx, func(page *forms.ListFormResponsesResponse) error {
		for _, r := range page.Responses {
			sub := model.Submission{
				ID:        r.ResponseId,
				Timestamp: parseTime(r.LastSubmittedTime, r.CreateTime),
			}

			ids := make([]string, 0, len(r.Answers))
			for qid := range r.Answers {
				ids = append(ids, qid)
			}
			sort.Slice(ids, func(a, b int) bool {
				return questions[ids[a]].pos < questions[ids[b]].pos
			})

			for _, qid := range ids {
				q, ok := questions[qid]
				if !ok {
					continue
				}
				sub.Answers = append(sub.Answers, model.Answer{
					Title: q.title,
					Value: textAnswer(r.Answers[qid]),
				})
			}
			subs = append(subs, sub)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", mapError(err))
	}

	sort.SliceStable(subs, func(a, b int) bool {
		return subs[a].Timestamp.Before(subs[b].Timestamp)
	})

	return subs, nil
}

// LinkDestination is not exposed by the Forms API
func (s *FormService) LinkDestination(ctx context.Context, formID, spreadsheetID string) error {
	return fmt.Errorf("forms API cannot set a response destination: %w", host.ErrUnsupported)
}

func (s *FormService) get(ctx context.Context, id string) (*forms.Form, error) {
	if err := s.client.wait(ctx, "forms"); err != nil {
		return nil, err
	}

	f, err := s.client.forms.Forms.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get form %s: %w", id, mapError(err))
	}
	return f, nil
}

// formWriter accumulates createItem requests for one form
type formWriter struct {
	client       *Client
	form         *forms.Form
	title        string
	requests     []*forms.Request
	items        int64
	confirmation string
}

func (w *formWriter) add(item *forms.Item) {
	w.requests = append(w.requests, &forms.Request{
		CreateItem: &forms.CreateItemRequest{
			Item: item,
			Location: &forms.Location{
				Index:           w.items,
				ForceSendFields: []string{"Index"},
			},
		},
	})
	w.items++
}

func (w *formWriter) AddPageBreak(title, help string) {
	w.add(&forms.Item{Title: title, Description: help, PageBreakItem: &forms.PageBreakItem{}})
}

func (w *formWriter) AddSectionHeader(title, help string) {
	w.add(&forms.Item{Title: title, Description: help, TextItem: &forms.TextItem{}})
}

func (w *formWriter) AddTextQuestion(title string, required bool) {
	w.add(&forms.Item{
		Title: title,
		QuestionItem: &forms.QuestionItem{
			Question: &forms.Question{
				Required:     required,
				TextQuestion: &forms.TextQuestion{},
			},
		},
	})
}

func (w *formWriter) AddChoiceQuestion(key model.QuestionKey, help string, choices []string, required bool) {
	options := make([]*forms.Option, len(choices))
	for i, c := range choices {
		options[i] = &forms.Option{Value: c}
	}

	w.add(&forms.Item{
		Title:       key.Title(),
		Description: help,
		QuestionItem: &forms.QuestionItem{
			Question: &forms.Question{
				Required: required,
				ChoiceQuestion: &forms.ChoiceQuestion{
					Type:    "RADIO",
					Options: options,
				},
			},
		},
	})
}

func (w *formWriter) SetConfirmation(message string) {
	w.confirmation = message
}

// Commit sends the accumulated requests in order
func (w *formWriter) Commit(ctx context.Context) (*model.FormArtifact, error) {
	for start := 0; start < len(w.requests); start += batchSize {
		end := start + batchSize
		if end > len(w.requests) {
			end = len(w.requests)
		}

		if err := w.client.wait(ctx, "forms"); err != nil {
			return nil, err
		}

		_, err := w.client.forms.Forms.BatchUpdate(w.form.FormId, &forms.BatchUpdateFormRequest{
			Requests: w.requests[start:end],
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("update form %s (requests %d-%d): %w", w.form.FormId, start, end, mapError(err))
		}
	}

	if w.confirmation != "" {
		w.client.logger.Info("Confirmation message must be set in the form editor",
			zap.String("form_id", w.form.FormId))
	}

	a := artifact(w.form)
	if a.Title == "" {
		a.Title = w.title
	}
	return a, nil
}

func artifact(f *forms.Form) *model.FormArtifact {
	a := &model.FormArtifact{
		ID:           f.FormId,
		EditURL:      editURL(f.FormId),
		ResponderURL: f.ResponderUri,
	}
	if f.Info != nil {
		a.Title = f.Info.Title
	}
	return a
}

func editURL(id string) string {
	return "https://docs.google.com/forms/d/" + id + "/edit"
}

func textAnswer(a forms.Answer) string {
	if a.TextAnswers == nil || len(a.TextAnswers.Answers) == 0 {
		return ""
	}
	return a.TextAnswers.Answers[0].Value
}

func parseTime(values ...string) time.Time {
	for _, v := range values {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
