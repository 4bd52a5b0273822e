package ingest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pmsync/models"
	"pmsync/utility"
)

const (
	DateLayout = "1/2/06"

	minBillingDays = 26
	maxBillingDays = 35
)

var (
	ErrHeader     = errors.New("first row must be column header names")
	ErrUnreadable = errors.New("file is not a readable csv or xlsx document")
)

// RowError is a fatal problem with one data row. Line is 1-based.
type RowError struct {
	Line    int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
}

// IsValidation reports whether err is a problem with the uploaded file rather than the system.
func IsValidation(err error) bool {
	var rowErr *RowError
	return errors.As(err, &rowErr) || errors.Is(err, ErrHeader) || errors.Is(err, ErrUnreadable)
}

// Layout describes the expected columns of one kind of utility file.
type Layout struct {
	Kind     models.ReadingKind
	Electric bool
}

func NewLayout(kind models.ReadingKind, utilType models.UtilType) Layout {
	return Layout{Kind: kind, Electric: kind == models.ConsumptionKind && utilType == models.Electric}
}

// Width is the number of cells in every row.
func (l Layout) Width() int {
	switch {
	case l.Kind == models.DeliveryKind:
		return 4
	case l.Electric:
		return 7
	}
	return 5
}

func (l Layout) Header() []string {
	if l.Kind == models.DeliveryKind {
		return []string{"Delivery Date", "Quantity", "Cost", "Estimation"}
	}
	header := []string{"Start Date", "End Date", "Total Usage", "Total Cost"}
	if l.Electric {
		header = append(header, "Demand", "Demand Cost")
	}
	return append(header, "Estimation")
}

func (l Layout) headerMatches(row []string) bool {
	want := l.Header()
	if len(row) != len(want) {
		return false
	}
	for i, cell := range row {
		if cell == want[i] {
			continue
		}
		if i == 3 && l.Kind == models.ConsumptionKind && cell == "Total Usage Cost" {
			continue
		}
		return false
	}
	return true
}

// Validate checks every row of the file and returns the non-fatal warnings.
// The first fatal problem rejects the whole file.
func Validate(rows [][]string, layout Layout) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrHeader)
	}
	width := layout.Width()
	if !layout.headerMatches(normalize(rows[0], width)) {
		return nil, fmt.Errorf("%w: %s", ErrHeader, strings.Join(layout.Header(), ", "))
	}

	warnings := make([]string, 0)
	for i, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}
		line := i + 2
		row := normalize(raw, width)
		if len(row) != width {
			return warnings, &RowError{Line: line, Message: fmt.Sprintf("expected %d columns, found %d", width, len(row))}
		}
		var warning string
		var err error
		if layout.Kind == models.DeliveryKind {
			err = validateDelivery(row)
		} else {
			warning, err = validateConsumption(row, layout.Electric)
		}
		if err != nil {
			return warnings, &RowError{Line: line, Message: err.Error()}
		}
		if warning != "" {
			warnings = append(warnings, fmt.Sprintf("Line %d: %s", line, warning))
		}
	}
	return warnings, nil
}

func validateConsumption(row []string, electric bool) (string, error) {
	start, err := parseDate(row[0], "Start Date")
	if err != nil {
		return "", err
	}
	end, err := parseDate(row[1], "End Date")
	if err != nil {
		return "", err
	}
	if end.Before(start) {
		return "", errors.New("End Date must not be before Start Date")
	}
	if _, ok := utility.ToFloat(row[2]); !ok {
		return "", fmt.Errorf("Total Usage %q is not a number", row[2])
	}
	optional := []int{3}
	if electric {
		optional = append(optional, 4, 5)
	}
	for _, col := range optional {
		if row[col] == "" {
			continue
		}
		if _, ok := utility.ToFloat(row[col]); !ok {
			return "", fmt.Errorf("column %d value %q is not a number", col+1, row[col])
		}
	}
	if err = checkEstimation(row[len(row)-1], false); err != nil {
		return "", err
	}

	days := int(end.Sub(start).Hours() / 24)
	if days < minBillingDays || days > maxBillingDays {
		return fmt.Sprintf("billing period of %d days is outside the expected %d-%d day range", days, minBillingDays, maxBillingDays), nil
	}
	return "", nil
}

func validateDelivery(row []string) error {
	if _, err := parseDate(row[0], "Delivery Date"); err != nil {
		return err
	}
	if _, ok := utility.ToFloat(row[1]); !ok {
		return fmt.Errorf("Quantity %q is not a number", row[1])
	}
	if row[2] != "" {
		if _, ok := utility.ToFloat(row[2]); !ok {
			return fmt.Errorf("Cost %q is not a number", row[2])
		}
	}
	return checkEstimation(row[3], true)
}

func parseDate(value, column string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q must be in M/D/YY format", column, value)
	}
	return t, nil
}

var estimationValues = []string{"yes", "no"}

func checkEstimation(value string, allowEmpty bool) error {
	if value == "" && allowEmpty {
		return nil
	}
	if !slices.Contains(estimationValues, value) {
		return fmt.Errorf("Estimation must be yes or no, found %q", value)
	}
	return nil
}
