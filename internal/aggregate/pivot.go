package aggregate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/riskform/internal/model"
)

type ratingPair struct {
	agreement string
	depth     string
}

type participant struct {
	name      string
	timestamp string
	ratings   map[string]map[string]ratingPair // item id -> rater -> pair
}

// Pivot builds one row per participant with an agreement/depth column pair
// for every (item, rater) seen in any row.
//
// Participants are identified by name alone and keep the order and timestamp
// of their first row; a later answer for the same (item, rater) overwrites an
// earlier one.
func Pivot(rows []model.ResponseRow) model.PivotTable {
	var order []string
	byName := make(map[string]*participant)
	raterSet := make(map[string]bool)
	itemSet := make(map[string]bool)

	// Pass 1: group and discover the column domain
	for _, r := range rows {
		p, ok := byName[r.Participant]
		if !ok {
			p = &participant{
				name:      r.Participant,
				timestamp: r.Timestamp.Format(model.TimestampLayout),
				ratings:   make(map[string]map[string]ratingPair),
			}
			byName[r.Participant] = p
			order = append(order, r.Participant)
		}

		if p.ratings[r.ItemID] == nil {
			p.ratings[r.ItemID] = make(map[string]ratingPair)
		}
		p.ratings[r.ItemID][r.Rater] = ratingPair{agreement: r.Agreement, depth: r.Depth}

		raterSet[r.Rater] = true
		itemSet[r.ItemID] = true
	}

	raters := make([]string, 0, len(raterSet))
	for r := range raterSet {
		raters = append(raters, r)
	}
	sort.Strings(raters)

	items := make([]string, 0, len(itemSet))
	for id := range itemSet {
		items = append(items, id)
	}
	model.SortItemIDs(items)

	// Pass 2: emit
	header := []string{"Participant", "Timestamp"}
	for _, item := range items {
		for _, rater := range raters {
			header = append(header,
				PivotColumn(item, rater, model.DimensionAgreement),
				PivotColumn(item, rater, model.DimensionDepth))
		}
	}

	table := model.PivotTable{Header: header, Rows: make([][]string, 0, len(order))}
	for _, name := range order {
		p := byName[name]
		row := make([]string, 0, len(header))
		row = append(row, p.name, p.timestamp)
		for _, item := range items {
			for _, rater := range raters {
				pair := p.ratings[item][rater]
				row = append(row, pair.agreement, pair.depth)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// PivotColumn names the pivot column for one (item, rater, dimension)
func PivotColumn(itemID, rater string, d model.Dimension) string {
	return fmt.Sprintf("item%s_%s_%s", itemID, rater, d)
}
