// Package host defines the narrow interfaces riskform needs from a
// document/form/spreadsheet platform. The loader, form builder and response
// aggregator depend only on these; internal/host/google and
// internal/host/local provide concrete backends.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/riskform/internal/model"
)

var (
	// ErrNotFound is returned when a named file, folder or form does not exist
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when a lookup by title matches several forms
	ErrAmbiguous = errors.New("ambiguous")

	// ErrUnsupported is returned when a backend cannot perform an operation
	ErrUnsupported = errors.New("unsupported by backend")
)

// Folder is a storage container
type Folder struct {
	ID   string
	Name string
}

// File is a stored document
type File struct {
	ID       string
	Name     string
	MimeType string
}

// DocumentStore reads evaluation data and publishes images
type DocumentStore interface {
	Folder(ctx context.Context, id string) (Folder, error)
	FindFolder(ctx context.Context, parentID, name string) (Folder, error)
	FindFile(ctx context.Context, parentID, name string) (File, error)
	ListFiles(ctx context.Context, folderID string) ([]File, error)
	ListFolders(ctx context.Context, folderID string) ([]Folder, error)
	ReadFile(ctx context.Context, fileID string) ([]byte, error)

	// ShareByLink makes a file readable by anyone holding its link
	ShareByLink(ctx context.Context, fileID string) error

	// PublicURI returns a URI that resolves to the file's content
	PublicURI(fileID string) string
}

// FormWriter accumulates questionnaire content. Items appear in call order.
type FormWriter interface {
	AddPageBreak(title, help string)
	AddSectionHeader(title, help string)
	AddTextQuestion(title string, required bool)
	AddChoiceQuestion(key model.QuestionKey, help string, choices []string, required bool)
	SetConfirmation(message string)

	// Commit persists the accumulated items and returns the artifact
	Commit(ctx context.Context) (*model.FormArtifact, error)
}

// FormSink creates questionnaires
type FormSink interface {
	CreateForm(ctx context.Context, meta model.FormMeta) (FormWriter, error)
}

// FormSource reads existing questionnaires and their submissions
type FormSource interface {
	FindForms(ctx context.Context, title string) ([]model.FormArtifact, error)
	OpenForm(ctx context.Context, id string) (*model.FormArtifact, error)

	// QuestionTitles returns question titles in form order
	QuestionTitles(ctx context.Context, formID string) ([]string, error)
	Submissions(ctx context.Context, formID string) ([]model.Submission, error)

	// LinkDestination binds a spreadsheet as the live response destination
	LinkDestination(ctx context.Context, formID, spreadsheetID string) error
}

// Spreadsheet is a created spreadsheet artifact
type Spreadsheet interface {
	ID() string
	URL() string
	AddSheet(ctx context.Context, name string, header []string, rows [][]string, style model.SheetStyle) error
}

// TabularSink creates spreadsheets
type TabularSink interface {
	CreateSpreadsheet(ctx context.Context, title string) (Spreadsheet, error)
}

// Backend bundles one platform's implementations
type Backend struct {
	Name   string
	Docs   DocumentStore
	Forms  FormSink
	Source FormSource
	Sheets TabularSink
	Close  func() error
}

// ResolveForm locates a form by explicit id, or by exact title when id is
// empty. A title matching more than one form is an error rather than a guess.
func ResolveForm(ctx context.Context, src FormSource, id, title string) (*model.FormArtifact, error) {
	if id != "" {
		form, err := src.OpenForm(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("open form %s: %w", id, err)
		}
		return form, nil
	}

	forms, err := src.FindForms(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("find form %q: %w", title, err)
	}

	switch len(forms) {
	case 0:
		return nil, fmt.Errorf("form %q: %w", title, ErrNotFound)
	case 1:
		return &forms[0], nil
	default:
		ids := make([]string, len(forms))
		for i, f := range forms {
			ids[i] = f.ID
		}
		return nil, fmt.Errorf("form %q matches %d forms %v, pass --form-id: %w", title, len(forms), ids, ErrAmbiguous)
	}
}
