// Package declarative parses YAML cube declarations into document structs.
// Field names mirror the existing declaration format exactly and are the
// compatibility surface for already-deployed schemas.
package declarative

// SupportedAPIVersion is the only apiVersion accepted by this loader.
const SupportedAPIVersion = "semantics/v1"

// KindCube is the document kind for cube declarations.
const KindCube = "Cube"

// Document is the generic envelope parsed first to determine Kind.
type Document struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// ObjectMeta holds common metadata for named resources.
type ObjectMeta struct {
	Name string `yaml:"name"`
}

// CubeDoc declares one cube.
type CubeDoc struct {
	APIVersion string     `yaml:"apiVersion"`
	Kind       string     `yaml:"kind"`
	Metadata   ObjectMeta `yaml:"metadata"`
	Spec       CubeSpec   `yaml:"spec"`

	// SourceFile is populated by the loader for error reporting.
	SourceFile string `yaml:"-"`
}

// CubeSpec holds the cube body. The top-level sql is the source relation.
type CubeSpec struct {
	SQL         string                   `yaml:"sql"`
	Description string                   `yaml:"description,omitempty"`
	Measures    map[string]MeasureSpec   `yaml:"measures,omitempty"`
	Dimensions  map[string]DimensionSpec `yaml:"dimensions,omitempty"`
	Segments    map[string]SegmentSpec   `yaml:"segments,omitempty"`
	Joins       map[string]JoinSpec      `yaml:"joins,omitempty"`
}

// MeasureSpec describes a single measure.
type MeasureSpec struct {
	Type         string       `yaml:"type"`
	SQL          string       `yaml:"sql,omitempty"`
	Title        string       `yaml:"title,omitempty"`
	Description  string       `yaml:"description,omitempty"`
	Format       string       `yaml:"format,omitempty"`
	Filters      []FilterSpec `yaml:"filters,omitempty"`
	DrillMembers []string     `yaml:"drillMembers,omitempty"`
}

// FilterSpec is a predicate template attached to a measure.
type FilterSpec struct {
	SQL string `yaml:"sql"`
}

// DimensionSpec describes a single dimension.
type DimensionSpec struct {
	Type        string `yaml:"type"`
	SQL         string `yaml:"sql"`
	PrimaryKey  bool   `yaml:"primaryKey,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Format      string `yaml:"format,omitempty"`
}

// SegmentSpec describes a reusable named predicate.
type SegmentSpec struct {
	SQL string `yaml:"sql"`
}

// JoinSpec describes a join edge to another cube.
type JoinSpec struct {
	Relationship string `yaml:"relationship"`
	SQL          string `yaml:"sql"`
}
