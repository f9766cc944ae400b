package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

// PartialDate is a date known to year, month or day precision. It is stored as its ISO prefix
// ("1865", "1865-08", "1865-08-12") so that string order matches date order.
type PartialDate struct {
	Year      int
	Month     int
	Day       int
	Precision Precision
}

func NewYear(year int) PartialDate {
	return PartialDate{Year: year, Precision: PrecisionYear}
}

func ParsePartialDate(raw string) (PartialDate, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return PartialDate{}, nil
	}

	invalid := &ValidationError{Message: fmt.Sprintf("invalid partial date %q, expected YYYY, YYYY-MM or YYYY-MM-DD", raw)}

	parts := strings.Split(value, "-")
	if len(parts) > 3 || len(parts[0]) != 4 {
		return PartialDate{}, invalid
	}

	numbers := make([]int, len(parts))
	for i, part := range parts {
		if i > 0 && len(part) != 2 {
			return PartialDate{}, invalid
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return PartialDate{}, invalid
		}
		numbers[i] = n
	}

	d := PartialDate{Year: numbers[0], Precision: PrecisionYear}
	if len(numbers) > 1 {
		if numbers[1] < 1 || numbers[1] > 12 {
			return PartialDate{}, invalid
		}
		d.Month = numbers[1]
		d.Precision = PrecisionMonth
	}
	if len(numbers) > 2 {
		t := time.Date(d.Year, time.Month(d.Month), numbers[2], 0, 0, 0, 0, time.UTC)
		if numbers[2] < 1 || t.Day() != numbers[2] {
			return PartialDate{}, invalid
		}
		d.Day = numbers[2]
		d.Precision = PrecisionDay
	}

	return d, nil
}

func MustParsePartialDate(raw string) PartialDate {
	d, err := ParsePartialDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d PartialDate) IsZero() bool {
	return d.Precision == PrecisionNone
}

// String returns the stored ISO form.
func (d PartialDate) String() string {
	switch d.Precision {
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	return ""
}

// Display renders the date for people: "1865", "Aug. 1865", "Aug. 12, 1865".
func (d PartialDate) Display() string {
	switch d.Precision {
	case PrecisionYear:
		return strconv.Itoa(d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%s. %d", monthAbbrev(d.Month), d.Year)
	case PrecisionDay:
		return fmt.Sprintf("%s. %02d, %d", monthAbbrev(d.Month), d.Day, d.Year)
	}
	return ""
}

func monthAbbrev(month int) string {
	return time.Month(month).String()[:3]
}

// earlierInYearThan reports whether d falls earlier in its year than other. Both need month precision.
func (d PartialDate) earlierInYearThan(other PartialDate) bool {
	if d.Precision < PrecisionMonth || other.Precision < PrecisionMonth {
		return false
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	if d.Precision < PrecisionDay || other.Precision < PrecisionDay {
		return false
	}
	return d.Day < other.Day
}

func (PartialDate) GormDataType() string {
	return "varchar(10)"
}

func (d PartialDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *PartialDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = PartialDate{}
		return nil
	case string:
		parsed, err := ParsePartialDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into PartialDate", src)
}

func (d PartialDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *PartialDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = PartialDate{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParsePartialDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
