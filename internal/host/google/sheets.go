package google

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// SheetService implements host.TabularSink on Google Sheets
type SheetService struct {
	client *Client
}

// CreateSpreadsheet creates an empty spreadsheet
func (s *SheetService) CreateSpreadsheet(ctx context.Context, title string) (host.Spreadsheet, error) {
	if err := s.client.wait(ctx, "sheets"); err != nil {
		return nil, err
	}

	created, err := s.client.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", mapError(err))
	}

	sp := &spreadsheet{client: s.client, id: created.SpreadsheetId, url: created.SpreadsheetUrl}
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sp.defaultSheet = created.Sheets[0].Properties.SheetId
		sp.hasDefault = true
	}
	return sp, nil
}

type spreadsheet struct {
	client       *Client
	id           string
	url          string
	defaultSheet int64
	hasDefault   bool
}

func (s *spreadsheet) ID() string  { return s.id }
func (s *spreadsheet) URL() string { return s.url }

// AddSheet writes a header and rows to a new sheet. The first call reuses the
// default sheet created with the spreadsheet.
func (s *spreadsheet) AddSheet(ctx context.Context, name string, header []string, rows [][]string, style model.SheetStyle) error {
	sheetID, err := s.sheetFor(ctx, name)
	if err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toRow(header))
	for _, r := range rows {
		values = append(values, toRow(r))
	}

	if err := s.client.wait(ctx, "sheets"); err != nil {
		return err
	}
	_, err = s.client.sheets.Spreadsheets.Values.Update(s.id, quoteSheet(name)+"!A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %q: %w", name, mapError(err))
	}

	requests := styleRequests(sheetID, len(header), style)
	if len(requests) == 0 {
		return nil
	}

	if err := s.client.wait(ctx, "sheets"); err != nil {
		return err
	}
	_, err = s.client.sheets.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("style sheet %q: %w", name, mapError(err))
	}

	return nil
}

// sheetFor renames the default sheet on first use, then adds new sheets
func (s *spreadsheet) sheetFor(ctx context.Context, name string) (int64, error) {
	if err := s.client.wait(ctx, "sheets"); err != nil {
		return 0, err
	}

	if s.hasDefault {
		s.hasDefault = false
		_, err := s.client.sheets.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         s.defaultSheet,
						Title:           name,
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "title",
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("rename sheet: %w", mapError(err))
		}
		return s.defaultSheet, nil
	}

	resp, err := s.client.sheets.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", name, mapError(err))
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %q: empty reply", name)
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func styleRequests(sheetID int64, columns int, style model.SheetStyle) []*sheets.Request {
	var requests []*sheets.Request

	if columns > 0 && (style.HeaderBackground != "" || style.HeaderForeground != "" || style.HeaderBold) {
		format := &sheets.CellFormat{
			TextFormat: &sheets.TextFormat{Bold: style.HeaderBold},
		}
		if c, ok := parseColor(style.HeaderBackground); ok {
			format.BackgroundColor = c
		}
		if c, ok := parseColor(style.HeaderForeground); ok {
			format.TextFormat.ForegroundColor = c
		}

		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell:   &sheets.CellData{UserEnteredFormat: format},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		})
	}

	if style.FrozenRows > 0 || style.FrozenColumns > 0 {
		requests = append(requests, &sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    int64(style.FrozenRows),
						FrozenColumnCount: int64(style.FrozenColumns),
					},
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		})
	}

	if style.AutoResize && columns > 0 {
		requests = append(requests, &sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      0,
					EndIndex:        int64(columns),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}

	return requests
}

// parseColor converts "#rrggbb" or a few names into a Sheets colour
func parseColor(s string) (*sheets.Color, bool) {
	switch strings.ToLower(s) {
	case "":
		return nil, false
	case "white":
		s = "#ffffff"
	case "black":
		s = "#000000"
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}

	return &sheets.Color{
		Red:   float64((v>>16)&0xff) / 255,
		Green: float64((v>>8)&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}, true
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
