package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RaterJudgment is one rater's verdict and rationale for an item.
// Revised fields shadow the original ones when present.
type RaterJudgment struct {
	RiskJudge     string `json:"risk_judge,omitempty"`
	RiskReason    string `json:"risk_reason,omitempty"`
	Judge         string `json:"judge,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RevisedJudge  string `json:"updated_judge_01,omitempty"`
	RevisedReason string `json:"updated_reason_01,omitempty"`
}

// Judgment returns the revised judgment if present, else the original
func (j RaterJudgment) Judgment() string {
	return firstNonEmpty(j.RevisedJudge, j.RiskJudge, j.Judge)
}

// Rationale returns the revised rationale if present, else the original
func (j RaterJudgment) Rationale() string {
	return firstNonEmpty(j.RevisedReason, j.RiskReason, j.Reason)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// EvaluationRecord maps rater key to that rater's judgment for one item
type EvaluationRecord map[string]RaterJudgment

// UnmarshalJSON skips rater entries that are not JSON objects (null, strings,
// numbers) so one malformed rater never discards the whole manifest.
func (r *EvaluationRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(EvaluationRecord, len(raw))
	for key, value := range raw {
		trimmed := strings.TrimSpace(string(value))
		if !strings.HasPrefix(trimmed, "{") {
			continue
		}
		var j RaterJudgment
		if err := json.Unmarshal(value, &j); err != nil {
			continue
		}
		out[key] = j
	}

	*r = out
	return nil
}

// Manifest maps item identifier to its evaluation record
type Manifest map[string]EvaluationRecord

// ParseManifest decodes the manifest JSON document
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

// SortedItemIDs returns the item identifiers in ascending numeric order.
// Identifiers that are not integers sort after the numeric ones, by string.
func (m Manifest) SortedItemIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	SortItemIDs(ids)
	return ids
}

// SortItemIDs sorts item identifiers by their integer value in place
func SortItemIDs(ids []string) {
	sort.SliceStable(ids, func(a, b int) bool {
		return itemLess(ids[a], ids[b])
	})
}

func itemLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// ImageRefs maps item identifier to a resolvable image URI
type ImageRefs map[string]string

// Dataset is the loader's output
type Dataset struct {
	Evaluations Manifest
	Images      ImageRefs
}

// NewDataset returns an empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		Evaluations: Manifest{},
		Images:      ImageRefs{},
	}
}

// ImageURI returns the image URI for an item, or the placeholder text
func (d *Dataset) ImageURI(itemID, placeholder string) string {
	if uri, ok := d.Images[itemID]; ok && uri != "" {
		return uri
	}
	return placeholder
}
