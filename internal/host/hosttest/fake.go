// Package hosttest provides in-memory host implementations for tests.
package hosttest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// Store is an in-memory host.DocumentStore
type Store struct {
	mu      sync.Mutex
	folders map[string]host.Folder
	parents map[string]string // child id -> parent id
	files   map[string]host.File
	content map[string][]byte
	shared  map[string]bool

	// FailShare makes ShareByLink fail for the given file ids
	FailShare map[string]error
	// FailFolder makes Folder fail with this error
	FailFolder error
}

// NewStore creates an empty store with a root folder
func NewStore(rootID string) *Store {
	s := &Store{
		folders:   map[string]host.Folder{},
		parents:   map[string]string{},
		files:     map[string]host.File{},
		content:   map[string][]byte{},
		shared:    map[string]bool{},
		FailShare: map[string]error{},
	}
	s.folders[rootID] = host.Folder{ID: rootID, Name: rootID}
	return s
}

// AddFolder adds a child folder and returns its id
func (s *Store) AddFolder(parentID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := parentID + "/" + name
	s.folders[id] = host.Folder{ID: id, Name: name}
	s.parents[id] = parentID
	return id
}

// AddFile adds a file and returns its id
func (s *Store) AddFile(parentID, name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := parentID + "/" + name
	s.files[id] = host.File{ID: id, Name: name}
	s.parents[id] = parentID
	s.content[id] = data
	return id
}

// Shared reports whether ShareByLink was called for a file
func (s *Store) Shared(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shared[fileID]
}

// SharedCount returns how many files were shared
func (s *Store) SharedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shared)
}

func (s *Store) Folder(ctx context.Context, id string) (host.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFolder != nil {
		return host.Folder{}, s.FailFolder
	}
	f, ok := s.folders[id]
	if !ok {
		return host.Folder{}, fmt.Errorf("folder %s: %w", id, host.ErrNotFound)
	}
	return f, nil
}

func (s *Store) FindFolder(ctx context.Context, parentID, name string) (host.Folder, error) {
	for _, f := range s.childFolders(parentID) {
		if f.Name == name {
			return f, nil
		}
	}
	return host.Folder{}, fmt.Errorf("folder %q: %w", name, host.ErrNotFound)
}

func (s *Store) FindFile(ctx context.Context, parentID, name string) (host.File, error) {
	for _, f := range s.childFiles(parentID) {
		if f.Name == name {
			return f, nil
		}
	}
	return host.File{}, fmt.Errorf("file %q: %w", name, host.ErrNotFound)
}

func (s *Store) ListFiles(ctx context.Context, folderID string) ([]host.File, error) {
	return s.childFiles(folderID), nil
}

func (s *Store) ListFolders(ctx context.Context, folderID string) ([]host.Folder, error) {
	return s.childFolders(folderID), nil
}

func (s *Store) ReadFile(ctx context.Context, fileID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.content[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", fileID, host.ErrNotFound)
	}
	return data, nil
}

func (s *Store) ShareByLink(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailShare[fileID]; err != nil {
		return err
	}
	s.shared[fileID] = true
	return nil
}

func (s *Store) PublicURI(fileID string) string {
	return "https://example.test/view?id=" + fileID
}

func (s *Store) childFiles(parentID string) []host.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []host.File
	for id, f := range s.files {
		if s.parents[id] == parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Store) childFolders(parentID string) []host.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []host.Folder
	for id, f := range s.folders {
		if s.parents[id] == parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Item is one recorded form item
type Item struct {
	Kind     string // page_break, section_header, text, choice
	Title    string
	Help     string
	Required bool
	Key      *model.QuestionKey
	Choices  []string
}

// Form is a recorded questionnaire
type Form struct {
	ID           string
	Meta         model.FormMeta
	Items        []Item
	Confirmation string
	Committed    bool
	Submissions  []model.Submission
	Destination  string
}

// Forms is an in-memory host.FormSink and host.FormSource
type Forms struct {
	mu    sync.Mutex
	forms []*Form

	// FailCreate makes CreateForm fail with this error
	FailCreate error
}

// NewForms creates an empty form registry
func NewForms() *Forms {
	return &Forms{}
}

// All returns every created form
func (f *Forms) All() []*Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Form(nil), f.forms...)
}

// AddForm registers a form with submissions directly
func (f *Forms) AddForm(title string, subs ...model.Submission) *Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	form := &Form{
		ID:          fmt.Sprintf("form-%d", len(f.forms)+1),
		Meta:        model.FormMeta{Title: title},
		Committed:   true,
		Submissions: subs,
	}
	f.forms = append(f.forms, form)
	return form
}

func (f *Forms) CreateForm(ctx context.Context, meta model.FormMeta) (host.FormWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	form := &Form{ID: fmt.Sprintf("form-%d", len(f.forms)+1), Meta: meta}
	f.forms = append(f.forms, form)
	return &writer{form: form}, nil
}

func (f *Forms) FindForms(ctx context.Context, title string) ([]model.FormArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FormArtifact
	for _, form := range f.forms {
		if form.Meta.Title == title {
			out = append(out, model.FormArtifact{ID: form.ID, Title: form.Meta.Title})
		}
	}
	return out, nil
}

func (f *Forms) OpenForm(ctx context.Context, id string) (*model.FormArtifact, error) {
	form, err := f.find(id)
	if err != nil {
		return nil, err
	}
	return &model.FormArtifact{ID: form.ID, Title: form.Meta.Title}, nil
}

func (f *Forms) QuestionTitles(ctx context.Context, formID string) ([]string, error) {
	form, err := f.find(formID)
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, it := range form.Items {
		if it.Kind == "text" || it.Kind == "choice" {
			titles = append(titles, it.Title)
		}
	}
	return titles, nil
}

func (f *Forms) Submissions(ctx context.Context, formID string) ([]model.Submission, error) {
	form, err := f.find(formID)
	if err != nil {
		return nil, err
	}
	return form.Submissions, nil
}

func (f *Forms) LinkDestination(ctx context.Context, formID, spreadsheetID string) error {
	form, err := f.find(formID)
	if err != nil {
		return err
	}
	form.Destination = spreadsheetID
	return nil
}

func (f *Forms) find(id string) (*Form, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, form := range f.forms {
		if form.ID == id {
			return form, nil
		}
	}
	return nil, fmt.Errorf("form %s: %w", id, host.ErrNotFound)
}

type writer struct {
	form *Form
}

func (w *writer) AddPageBreak(title, help string) {
	w.form.Items = append(w.form.Items, Item{Kind: "page_break", Title: title, Help: help})
}

func (w *writer) AddSectionHeader(title, help string) {
	w.form.Items = append(w.form.Items, Item{Kind: "section_header", Title: title, Help: help})
}

func (w *writer) AddTextQuestion(title string, required bool) {
	w.form.Items = append(w.form.Items, Item{Kind: "text", Title: title, Required: required})
}

func (w *writer) AddChoiceQuestion(key model.QuestionKey, help string, choices []string, required bool) {
	k := key
	w.form.Items = append(w.form.Items, Item{
		Kind:     "choice",
		Title:    key.Title(),
		Help:     help,
		Required: required,
		Key:      &k,
		Choices:  choices,
	})
}

func (w *writer) SetConfirmation(message string) {
	w.form.Confirmation = message
}

func (w *writer) Commit(ctx context.Context) (*model.FormArtifact, error) {
	w.form.Committed = true
	return &model.FormArtifact{ID: w.form.ID, Title: w.form.Meta.Title}, nil
}

// Sheet is one recorded sheet
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
	Style  model.SheetStyle
}

// Spreadsheet is a recorded spreadsheet
type Spreadsheet struct {
	SheetID string
	Title   string
	Sheets  []Sheet
}

func (s *Spreadsheet) ID() string  { return s.SheetID }
func (s *Spreadsheet) URL() string { return "https://example.test/sheets/" + s.SheetID }

func (s *Spreadsheet) AddSheet(ctx context.Context, name string, header []string, rows [][]string, style model.SheetStyle) error {
	s.Sheets = append(s.Sheets, Sheet{Name: name, Header: header, Rows: rows, Style: style})
	return nil
}

// Sheets is an in-memory host.TabularSink
type Sheets struct {
	Created []*Spreadsheet
}

func (t *Sheets) CreateSpreadsheet(ctx context.Context, title string) (host.Spreadsheet, error) {
	sp := &Spreadsheet{SheetID: fmt.Sprintf("sheet-%d", len(t.Created)+1), Title: title}
	t.Created = append(t.Created, sp)
	return sp, nil
}
