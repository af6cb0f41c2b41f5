package semantic

import (
	"fmt"
	"time"

	"semcube/internal/domain"
)

// compileDimension resolves a dimension's source expression, optionally
// truncated to a grain for time dimensions.
func compileDimension(dim domain.DimensionDefinition, grain domain.Grain, ctx compileContext) (string, error) {
	expr, err := ctx.resolve(dim.SourceExpression)
	if err != nil {
		return "", err
	}
	if grain == "" {
		return expr, nil
	}
	if dim.Type != domain.ValueTypeTime {
		return "", &domain.TypeMismatchError{Field: dim.Name, Message: "granularity requires a time dimension"}
	}
	return fmt.Sprintf("DATE_TRUNC('%s', %s)", grain, expr), nil
}

// TruncateToGrain truncates t to the start of its grain interval. Intervals
// are half-open: the start instant belongs to the interval, the next grain
// boundary does not. Truncation is computed in UTC; weeks start on Monday.
func TruncateToGrain(t time.Time, g domain.Grain) time.Time {
	t = t.UTC()
	switch g {
	case domain.GrainSecond:
		return t.Truncate(time.Second)
	case domain.GrainMinute:
		return t.Truncate(time.Minute)
	case domain.GrainHour:
		return t.Truncate(time.Hour)
	case domain.GrainDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case domain.GrainWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case domain.GrainMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case domain.GrainQuarter:
		month := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	case domain.GrainYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// AddGrain advances t by one grain interval.
func AddGrain(t time.Time, g domain.Grain) time.Time {
	t = t.UTC()
	switch g {
	case domain.GrainSecond:
		return t.Add(time.Second)
	case domain.GrainMinute:
		return t.Add(time.Minute)
	case domain.GrainHour:
		return t.Add(time.Hour)
	case domain.GrainDay:
		return t.AddDate(0, 0, 1)
	case domain.GrainWeek:
		return t.AddDate(0, 0, 7)
	case domain.GrainMonth:
		return t.AddDate(0, 1, 0)
	case domain.GrainQuarter:
		return t.AddDate(0, 3, 0)
	case domain.GrainYear:
		return t.AddDate(1, 0, 0)
	}
	return t
}
