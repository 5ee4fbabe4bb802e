package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownFormat = errors.New("no matching export format found: expected a payments or balance export")

var createdLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// Parsed is the succeeded charges of one export.
type Parsed struct {
	Format   string
	Encoding string
	Charges  []Charge
	Skipped  int // Data rows that were not succeeded charges
}

// Parse reads a processor CSV export, detecting its encoding and layout.
func Parse(r io.Reader) (*Parsed, error) {
	utf8r, charset, err := toUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, ErrUnknownFormat
	}

	parsed, err := parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
	if err != nil {
		return nil, err
	}

	parsed.Encoding = charset

	return parsed, nil
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows keeps succeeded charges. headerRowNum is 0-based, row numbers in errors are 1-based.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) (*Parsed, error) {
	parsed := &Parsed{Format: p.Name}

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		id := cellValue(row, cols[p.IDCol])
		if id == "" {
			continue
		}

		if !p.succeeded(cellValue(row, cols[p.StatusCol])) {
			parsed.Skipped++
			continue
		}

		created, err := parseCreated(cellValue(row, cols[p.CreatedCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		amount, err := parseAmount(cellValue(row, cols[p.AmountCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		parsed.Charges = append(parsed.Charges, Charge{
			ID:         id,
			PaymentRef: cellValue(row, cols[p.PaymentRefCol]),
			Created:    created,
			Amount:     amount,
			Currency:   strings.ToLower(cellValue(row, cols[p.CurrencyCol])),
			Row:        rowNum,
		})
	}

	return parsed, nil
}

func parseCreated(s string) (time.Time, error) {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid created date %q", s)
}

// parseAmount accepts major-unit amounts with optional thousands separators ("1,234.56").
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return d, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
