package calculations

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const dateLayout = "2006-01-02"

// Date календарная дата без времени, в JSON сериализуется как "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate создаёт дату в UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает ISO-8601 дату; полная метка времени обрезается до даты
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// AddMonths сдвигает дату на заданное число месяцев
func (d Date) AddMonths(months int) Date {
	if d.IsZero() {
		return d
	}
	return Date{Time: d.Time.AddDate(0, months, 0)}
}

// Before сравнивает только даты
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// MonthsUntil число полных месяцев от d до other (0, если other раньше)
func (d Date) MonthsUntil(other Date) int {
	if d.IsZero() || other.IsZero() || !d.Before(other) {
		return 0
	}
	months := (other.Year()-d.Year())*12 + int(other.Month()-d.Month())
	if other.Day() < d.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON реализует json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON реализует json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
