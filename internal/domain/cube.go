package domain

import "unicode/utf8"

const MaxMemberNameLength = 255

// AggregationKind enumerates the supported measure aggregations. The string
// values are the wire names used by existing declarations.
type AggregationKind string

const (
	AggregationCount   AggregationKind = "count"
	AggregationAverage AggregationKind = "avg"
	AggregationNumber  AggregationKind = "number"
)

// Valid reports whether the kind is one of the recognized aggregations.
func (k AggregationKind) Valid() bool {
	switch k {
	case AggregationCount, AggregationAverage, AggregationNumber:
		return true
	}
	return false
}

// ValueType enumerates dimension value types.
type ValueType string

const (
	ValueTypeNumber ValueType = "number"
	ValueTypeString ValueType = "string"
	ValueTypeTime   ValueType = "time"
)

// Valid reports whether the value type is recognized.
func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeNumber, ValueTypeString, ValueTypeTime:
		return true
	}
	return false
}

// Relationship enumerates join relationship kinds.
type Relationship string

const (
	RelationshipBelongsTo Relationship = "belongsTo"
	RelationshipHasOne    Relationship = "hasOne"
	RelationshipHasMany   Relationship = "hasMany"
)

// Valid reports whether the relationship kind is recognized.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipBelongsTo, RelationshipHasOne, RelationshipHasMany:
		return true
	}
	return false
}

// MeasureDefinition declares one aggregate computation over the cube's rows.
type MeasureDefinition struct {
	Name             string
	Aggregation      AggregationKind
	SourceExpression string   // empty is valid only for count
	Filters          []string // predicate templates ANDed before aggregation
	DrillMembers     []string
	Title            string
	Description      string
	Format           string // display hint, e.g. "percent"
}

// DimensionDefinition declares one selectable, groupable attribute.
type DimensionDefinition struct {
	Name             string
	Type             ValueType
	SourceExpression string
	PrimaryKey       bool
	Title            string
	Description      string
	Format           string
}

// SegmentDefinition declares a reusable named boolean predicate.
type SegmentDefinition struct {
	Name      string
	Predicate string
}

// JoinDefinition declares a join edge to another cube.
type JoinDefinition struct {
	TargetCube   string
	Relationship Relationship
	JoinSQL      string
}

// CubeDefinition is the immutable model of one analytical cube. Instances are
// built and validated once at load time and never mutated afterwards.
type CubeDefinition struct {
	Name           string
	SourceRelation string // table reference or SELECT statement
	Description    string
	Measures       map[string]MeasureDefinition
	Dimensions     map[string]DimensionDefinition
	Segments       map[string]SegmentDefinition
	Joins          map[string]JoinDefinition
}

// Measure returns the named measure definition.
func (c *CubeDefinition) Measure(name string) (MeasureDefinition, bool) {
	m, ok := c.Measures[name]
	return m, ok
}

// Dimension returns the named dimension definition.
func (c *CubeDefinition) Dimension(name string) (DimensionDefinition, bool) {
	d, ok := c.Dimensions[name]
	return d, ok
}

// Segment returns the named segment definition.
func (c *CubeDefinition) Segment(name string) (SegmentDefinition, bool) {
	s, ok := c.Segments[name]
	return s, ok
}

// HasMember reports whether name resolves to a measure or dimension.
func (c *CubeDefinition) HasMember(name string) bool {
	if _, ok := c.Measures[name]; ok {
		return true
	}
	_, ok := c.Dimensions[name]
	return ok
}

// PrimaryKey returns the dimension marked as primary key, if any.
func (c *CubeDefinition) PrimaryKey() (DimensionDefinition, bool) {
	for _, d := range c.Dimensions {
		if d.PrimaryKey {
			return d, true
		}
	}
	return DimensionDefinition{}, false
}

// ValidateName checks a member name for emptiness and length.
func ValidateName(name string) error {
	if name == "" {
		return ErrValidation(ValidationInvalidInput, "name is required")
	}
	if utf8.RuneCountInString(name) > MaxMemberNameLength {
		return ErrValidation(ValidationInvalidInput, "name must be <= %d characters", MaxMemberNameLength)
	}
	return nil
}
