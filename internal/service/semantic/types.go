// Package semantic compiles cube queries into parameterized SQL.
package semantic

import "semcube/internal/domain"

// MemberType distinguishes manifest entries.
type MemberType string

const (
	MemberDimension MemberType = "dimension"
	MemberMeasure   MemberType = "measure"
)

// ManifestEntry describes one output column of a compiled query. It carries
// enough metadata for a caller to render results without re-consulting the
// schema.
type ManifestEntry struct {
	Alias        string     `json:"alias"`
	MemberType   MemberType `json:"memberType"`
	SemanticType string     `json:"semanticType"` // number | string | time
	Title        string     `json:"title,omitempty"`
	Format       string     `json:"format,omitempty"`
}

// CompiledQuery is the compiler output: one SQL statement, its bind
// arguments in placeholder order, and the output column manifest.
type CompiledQuery struct {
	SQL      string          `json:"sql"`
	Args     []interface{}   `json:"args"`
	Manifest []ManifestEntry `json:"manifest"`
}

// compileContext carries per-compilation wiring shared by the member
// compilers: the cube being compiled and the alias mapping for macro
// resolution.
type compileContext struct {
	cube     *domain.CubeDefinition
	aliasFor AliasFunc
}

func newCompileContext(cube *domain.CubeDefinition) compileContext {
	return compileContext{
		cube: cube,
		aliasFor: func(name string) (string, bool) {
			if name == cube.Name {
				return cube.Name, true
			}
			return "", false
		},
	}
}

func (ctx compileContext) resolve(template string) (string, error) {
	return ResolveTemplate(template, ctx.cube.Name, ctx.aliasFor)
}
