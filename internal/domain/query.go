package domain

import "time"

// FilterOperator enumerates ad-hoc filter comparison operators.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "notEquals"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "notContains"
	OpGt          FilterOperator = "gt"
	OpGte         FilterOperator = "gte"
	OpLt          FilterOperator = "lt"
	OpLte         FilterOperator = "lte"
	OpSet         FilterOperator = "set"
	OpNotSet      FilterOperator = "notSet"
)

// Valid reports whether the operator is recognized.
func (op FilterOperator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGt, OpGte, OpLt, OpLte, OpSet, OpNotSet:
		return true
	}
	return false
}

// NeedsValues reports whether the operator requires at least one value.
func (op FilterOperator) NeedsValues() bool {
	return op != OpSet && op != OpNotSet
}

// Ordering reports whether the operator is an ordering comparison, which is
// rejected on string-typed fields.
func (op FilterOperator) Ordering() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Grain enumerates time-dimension truncation granularities.
type Grain string

const (
	GrainSecond  Grain = "second"
	GrainMinute  Grain = "minute"
	GrainHour    Grain = "hour"
	GrainDay     Grain = "day"
	GrainWeek    Grain = "week"
	GrainMonth   Grain = "month"
	GrainQuarter Grain = "quarter"
	GrainYear    Grain = "year"
)

// Valid reports whether the grain is recognized.
func (g Grain) Valid() bool {
	switch g {
	case GrainSecond, GrainMinute, GrainHour, GrainDay,
		GrainWeek, GrainMonth, GrainQuarter, GrainYear:
		return true
	}
	return false
}

// Filter is one ad-hoc predicate supplied with a query.
type Filter struct {
	Field    string
	Operator FilterOperator
	Values   []interface{}
}

// TimeDimensionRequest selects a time dimension with an optional grain and
// half-open date range [From, To).
type TimeDimensionRequest struct {
	Dimension string
	Grain     Grain // empty means no truncation
	From      *time.Time
	To        *time.Time
}

// Order is one ORDER BY entry; Member must be a selected measure or dimension.
type Order struct {
	Member     string
	Descending bool
}

// QueryRequest is the per-query input contract. Instances are constructed per
// incoming query and discarded after compilation.
type QueryRequest struct {
	Cube          string
	Measures      []string
	Dimensions    []string
	Segments      []string
	Filters       []Filter
	TimeDimension *TimeDimensionRequest
	Order         []Order
	Limit         *int
	Offset        *int
}

// Validate checks request shape before compilation. Name resolution against a
// cube happens in the assembler.
func (r *QueryRequest) Validate() error {
	if r.Cube == "" {
		return ErrValidation(ValidationInvalidInput, "cube is required")
	}
	if len(r.Measures) == 0 && len(r.Dimensions) == 0 {
		return ErrValidation(ValidationInvalidInput, "at least one measure or dimension is required")
	}
	for _, f := range r.Filters {
		if f.Field == "" {
			return ErrValidation(ValidationInvalidInput, "filter field is required")
		}
		if !f.Operator.Valid() {
			return ErrValidation(ValidationInvalidInput, "filter operator %q is not supported", f.Operator)
		}
		if f.Operator.NeedsValues() && len(f.Values) == 0 {
			return ErrValidation(ValidationInvalidInput, "filter on %q requires at least one value", f.Field)
		}
	}
	if td := r.TimeDimension; td != nil {
		if td.Dimension == "" {
			return ErrValidation(ValidationInvalidInput, "time dimension name is required")
		}
		if td.Grain != "" && !td.Grain.Valid() {
			return ErrValidation(ValidationInvalidInput, "granularity %q is not supported", td.Grain)
		}
		if td.From != nil && td.To != nil && !td.From.Before(*td.To) {
			return ErrValidation(ValidationInvalidInput, "date range start must precede end")
		}
	}
	if r.Limit != nil && *r.Limit < 0 {
		return ErrValidation(ValidationInvalidInput, "limit must be >= 0")
	}
	if r.Offset != nil && *r.Offset < 0 {
		return ErrValidation(ValidationInvalidInput, "offset must be >= 0")
	}
	return nil
}
