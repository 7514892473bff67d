package aggregate

import (
	"sort"
	"strconv"

	"github.com/ppiankov/riskform/internal/model"
)

// RaterSummary averages the ratings one rater received
type RaterSummary struct {
	Rater     string
	Rows      int
	Agreement float64 // mean over non-empty ratings, 0 when none
	Depth     float64
	Rated     int // rows with an agreement rating
	DepthN    int // rows with a depth rating
}

// Summarize groups flat rows by rater, sorted by rater name
func Summarize(rows []model.ResponseRow) []RaterSummary {
	type acc struct {
		rows, agreeN, depthN int
		agreeSum, depthSum   float64
	}
	byRater := make(map[string]*acc)

	for _, r := range rows {
		a, ok := byRater[r.Rater]
		if !ok {
			a = &acc{}
			byRater[r.Rater] = a
		}
		a.rows++
		if v, err := strconv.Atoi(r.Agreement); err == nil {
			a.agreeSum += float64(v)
			a.agreeN++
		}
		if v, err := strconv.Atoi(r.Depth); err == nil {
			a.depthSum += float64(v)
			a.depthN++
		}
	}

	out := make([]RaterSummary, 0, len(byRater))
	for rater, a := range byRater {
		s := RaterSummary{Rater: rater, Rows: a.rows, Rated: a.agreeN, DepthN: a.depthN}
		if a.agreeN > 0 {
			s.Agreement = a.agreeSum / float64(a.agreeN)
		}
		if a.depthN > 0 {
			s.Depth = a.depthSum / float64(a.depthN)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rater < out[j].Rater })
	return out
}
