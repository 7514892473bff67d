package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TitleFormatVersion identifies the question title grammar:
//
//	title     = "[item " item-id "] " rater " - " dimension
//	item-id   = 1*DIGIT
//	dimension = "agreement" / "depth"
//
// Response aggregation recovers QuestionKey values from titles, so any change
// here must bump the version and keep ParseTitle able to read old titles.
const TitleFormatVersion = 1

// Dimension is one of the two rated aspects of a rater's judgment
type Dimension string

const (
	DimensionAgreement Dimension = "agreement" // Agreement with the judgment
	DimensionDepth     Dimension = "depth"     // Perceived depth of reasoning
)

// Dimensions lists the rated dimensions in question order
var Dimensions = []Dimension{DimensionAgreement, DimensionDepth}

// QuestionKey identifies one rating question
type QuestionKey struct {
	ItemID    string    `json:"item_id"`
	Rater     string    `json:"rater"` // Display name, as shown to participants
	Dimension Dimension `json:"dimension"`
}

var titlePattern = regexp.MustCompile(`^\[item (\d+)\] (.+) - (agreement|depth)$`)

var itemIDPattern = regexp.MustCompile(`^\d+$`)

// TitleItemID reports whether id survives a Title/ParseTitle round trip
func TitleItemID(id string) bool {
	return itemIDPattern.MatchString(id)
}

// Title renders the key in the versioned title grammar
func (k QuestionKey) Title() string {
	return fmt.Sprintf("[item %s] %s - %s", k.ItemID, k.Rater, k.Dimension)
}

// Sibling returns the key for the other dimension of the same item and rater
func (k QuestionKey) Sibling(d Dimension) QuestionKey {
	k.Dimension = d
	return k
}

// ParseTitle recovers a QuestionKey from a question title
func ParseTitle(title string) (QuestionKey, bool) {
	m := titlePattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return QuestionKey{}, false
	}
	return QuestionKey{
		ItemID:    m[1],
		Rater:     m[2],
		Dimension: Dimension(m[3]),
	}, true
}

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// RatingValue extracts the score from a choice answer ("4 - Partly agree" -> "4").
// Answers without a leading number are returned unchanged.
func RatingValue(answer string) string {
	m := leadingDigits.FindString(answer)
	if m == "" {
		return answer
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return m
	}
	return strconv.Itoa(n)
}

// Eligible reports whether a rater key may receive questions
func (c RaterConfig) Eligible(key string) bool {
	for _, k := range c.Keys {
		if k == key {
			return true
		}
	}
	for _, p := range c.Prefixes {
		if p != "" && strings.HasPrefix(key, p) {
			return true
		}
	}
	for _, s := range c.Sentinels {
		if s == key {
			return true
		}
	}
	return false
}

// DisplayName returns the anonymized label for a rater key
func (c RaterConfig) DisplayName(key string) string {
	if name, ok := c.DisplayNames[key]; ok && name != "" {
		return name
	}
	// viper lower-cases map keys read from config files and env
	for k, name := range c.DisplayNames {
		if strings.EqualFold(k, key) && name != "" {
			return name
		}
	}
	return fmt.Sprintf("Agent (%s)", key)
}

// Labels returns the choice labels for a dimension
func (s ScaleConfig) Labels(d Dimension) []string {
	if d == DimensionDepth {
		return s.Depth
	}
	return s.Agreement
}
