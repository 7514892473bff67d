package model

import "time"

// FormMeta holds questionnaire-level settings
type FormMeta struct {
	Title              string
	Description        string
	CollectEmail       bool
	AllowResponseEdits bool
	LimitOneResponse   bool
}

// FormArtifact identifies a created questionnaire
type FormArtifact struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	EditURL      string `json:"edit_url,omitempty"`
	ResponderURL string `json:"responder_url,omitempty"`
}

// Answer is one answered question inside a submission
type Answer struct {
	Title string       `json:"title"`
	Value string       `json:"value"`
	Key   *QuestionKey `json:"key,omitempty"` // Set when the backend stores question metadata
}

// Submission is one participant's submitted response
type Submission struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Answers   []Answer  `json:"answers"`
}

// ResponseRow is one flat aggregation row per (submission, item, rater)
type ResponseRow struct {
	Participant string    `json:"participant"`
	Timestamp   time.Time `json:"timestamp"`
	ItemID      string    `json:"item_id"`
	Rater       string    `json:"rater"`
	Agreement   string    `json:"agreement"`
	Depth       string    `json:"depth"`
}

// FlatHeader is the header of the flat response sheet
var FlatHeader = []string{"Participant", "Timestamp", "Item ID", "Agent", "Agreement", "Depth"}

// TimestampLayout formats submission timestamps in sheets
const TimestampLayout = "2006-01-02 15:04:05"

// Cells renders the row for a sheet
func (r ResponseRow) Cells() []string {
	return []string{
		r.Participant,
		r.Timestamp.Format(TimestampLayout),
		r.ItemID,
		r.Rater,
		r.Agreement,
		r.Depth,
	}
}

// PivotTable has one row per participant and one agreement/depth column pair
// per (item, rater) combination observed across all participants
type PivotTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// SheetStyle describes how a sheet's header is rendered
type SheetStyle struct {
	HeaderBackground string // Hex colour, e.g. "#4285f4"
	HeaderForeground string
	HeaderBold       bool
	FrozenRows       int
	FrozenColumns    int
	AutoResize       bool
}
