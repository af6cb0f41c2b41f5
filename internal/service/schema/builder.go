// Package schema builds validated immutable cube models from declarative
// documents and holds the active model snapshot.
package schema

import (
	"strings"

	"semcube/internal/declarative"
	"semcube/internal/domain"
)

// Policy controls load-time validation choices that are configuration rather
// than hard rules.
type Policy struct {
	// RequirePrimaryKey turns a zero-primary-key cube into a load error.
	RequirePrimaryKey bool
}

// CubeError pairs a failed cube name with its validation error.
type CubeError struct {
	Cube string
	File string
	Err  error
}

// LoadResult reports which cubes loaded and which were excluded.
type LoadResult struct {
	Snapshot *Snapshot
	Failed   []CubeError
}

// Load builds CubeDefinitions from declarative documents. A cube that fails
// validation is excluded from the snapshot; the remaining cubes still load.
// Duplicate cube names across documents fail both occurrences.
func Load(docs []declarative.CubeDoc, policy Policy) *LoadResult {
	result := &LoadResult{}
	cubes := make(map[string]*domain.CubeDefinition, len(docs))

	seen := make(map[string]string, len(docs)) // cube name -> source file
	for _, doc := range docs {
		if prev, dup := seen[doc.Metadata.Name]; dup {
			delete(cubes, doc.Metadata.Name)
			result.Failed = append(result.Failed, CubeError{
				Cube: doc.Metadata.Name,
				File: doc.SourceFile,
				Err: domain.ErrValidation(domain.ValidationDuplicateName,
					"cube %q already declared in %s", doc.Metadata.Name, prev),
			})
			continue
		}
		seen[doc.Metadata.Name] = doc.SourceFile

		cube, err := buildCube(doc, policy)
		if err != nil {
			result.Failed = append(result.Failed, CubeError{Cube: doc.Metadata.Name, File: doc.SourceFile, Err: err})
			continue
		}
		cubes[cube.Name] = cube
	}

	// Join targets resolve against the full loaded set, so check them last.
	for name, cube := range cubes {
		if err := validateJoinTargets(cube, cubes); err != nil {
			delete(cubes, name)
			result.Failed = append(result.Failed, CubeError{Cube: name, Err: err})
		}
	}

	result.Snapshot = newSnapshot(cubes)
	return result
}

func buildCube(doc declarative.CubeDoc, policy Policy) (*domain.CubeDefinition, error) {
	if err := domain.ValidateName(doc.Metadata.Name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Spec.SQL) == "" {
		return nil, domain.ErrValidation(domain.ValidationInvalidInput,
			"cube %q: sql (source relation) is required", doc.Metadata.Name)
	}

	cube := &domain.CubeDefinition{
		Name:           doc.Metadata.Name,
		SourceRelation: strings.TrimSpace(doc.Spec.SQL),
		Description:    doc.Spec.Description,
		Measures:       make(map[string]domain.MeasureDefinition, len(doc.Spec.Measures)),
		Dimensions:     make(map[string]domain.DimensionDefinition, len(doc.Spec.Dimensions)),
		Segments:       make(map[string]domain.SegmentDefinition, len(doc.Spec.Segments)),
		Joins:          make(map[string]domain.JoinDefinition, len(doc.Spec.Joins)),
	}

	for name, spec := range doc.Spec.Dimensions {
		if err := domain.ValidateName(name); err != nil {
			return nil, err
		}
		vt := domain.ValueType(spec.Type)
		if !vt.Valid() {
			return nil, domain.ErrValidation(domain.ValidationInvalidValueType,
				"dimension %q: type must be number, string, or time, got %q", name, spec.Type)
		}
		if strings.TrimSpace(spec.SQL) == "" {
			return nil, domain.ErrValidation(domain.ValidationInvalidInput,
				"dimension %q: sql is required", name)
		}
		cube.Dimensions[name] = domain.DimensionDefinition{
			Name:             name,
			Type:             vt,
			SourceExpression: spec.SQL,
			PrimaryKey:       spec.PrimaryKey,
			Title:            spec.Title,
			Description:      spec.Description,
			Format:           spec.Format,
		}
	}

	for name, spec := range doc.Spec.Measures {
		if err := domain.ValidateName(name); err != nil {
			return nil, err
		}
		if _, clash := cube.Dimensions[name]; clash {
			return nil, domain.ErrValidation(domain.ValidationDuplicateName,
				"%q is declared as both a measure and a dimension", name)
		}
		kind := domain.AggregationKind(spec.Type)
		if !kind.Valid() {
			return nil, domain.ErrValidation(domain.ValidationInvalidAggregationKind,
				"measure %q: type must be count, avg, or number, got %q", name, spec.Type)
		}
		if kind != domain.AggregationCount && strings.TrimSpace(spec.SQL) == "" {
			return nil, domain.ErrValidation(domain.ValidationInvalidInput,
				"measure %q: sql is required for type %q", name, kind)
		}
		// A number measure carries a complete expression; there is no
		// aggregation argument to wrap a filter predicate around.
		if kind == domain.AggregationNumber && len(spec.Filters) > 0 {
			return nil, domain.ErrValidation(domain.ValidationInvalidInput,
				"measure %q: filters are not supported on type %q", name, kind)
		}
		m := domain.MeasureDefinition{
			Name:             name,
			Aggregation:      kind,
			SourceExpression: spec.SQL,
			DrillMembers:     append([]string(nil), spec.DrillMembers...),
			Title:            spec.Title,
			Description:      spec.Description,
			Format:           spec.Format,
		}
		for _, f := range spec.Filters {
			if strings.TrimSpace(f.SQL) == "" {
				return nil, domain.ErrValidation(domain.ValidationInvalidInput,
					"measure %q: filter sql must not be empty", name)
			}
			m.Filters = append(m.Filters, f.SQL)
		}
		cube.Measures[name] = m
	}

	for name, spec := range doc.Spec.Segments {
		if err := domain.ValidateName(name); err != nil {
			return nil, err
		}
		if strings.TrimSpace(spec.SQL) == "" {
			return nil, domain.ErrValidation(domain.ValidationInvalidInput,
				"segment %q: sql is required", name)
		}
		cube.Segments[name] = domain.SegmentDefinition{Name: name, Predicate: spec.SQL}
	}

	for target, spec := range doc.Spec.Joins {
		rel := domain.Relationship(spec.Relationship)
		if !rel.Valid() {
			return nil, domain.ErrValidation(domain.ValidationInvalidRelationship,
				"join %q: relationship must be belongsTo, hasOne, or hasMany, got %q", target, spec.Relationship)
		}
		if strings.TrimSpace(spec.SQL) == "" {
			return nil, domain.ErrValidation(domain.ValidationInvalidInput,
				"join %q: sql is required", target)
		}
		cube.Joins[target] = domain.JoinDefinition{TargetCube: target, Relationship: rel, JoinSQL: spec.SQL}
	}

	// drillMembers must name existing members of this cube.
	for _, m := range cube.Measures {
		for _, member := range m.DrillMembers {
			if !cube.HasMember(member) {
				return nil, domain.ErrValidation(domain.ValidationDanglingReference,
					"measure %q: drill member %q does not exist on cube %q", m.Name, member, cube.Name)
			}
		}
	}

	if err := validatePrimaryKey(cube, policy); err != nil {
		return nil, err
	}
	return cube, nil
}

func validatePrimaryKey(cube *domain.CubeDefinition, policy Policy) error {
	var pks []string
	for name, d := range cube.Dimensions {
		if d.PrimaryKey {
			pks = append(pks, name)
		}
	}
	if len(pks) > 1 {
		return domain.ErrValidation(domain.ValidationMissingPrimaryKey,
			"cube %q declares %d primary-key dimensions; at most one is allowed", cube.Name, len(pks))
	}
	if len(pks) == 0 && policy.RequirePrimaryKey {
		return domain.ErrValidation(domain.ValidationMissingPrimaryKey,
			"cube %q declares no primary-key dimension", cube.Name)
	}
	return nil
}

func validateJoinTargets(cube *domain.CubeDefinition, cubes map[string]*domain.CubeDefinition) error {
	for target := range cube.Joins {
		if _, ok := cubes[target]; !ok {
			return domain.ErrValidation(domain.ValidationDanglingReference,
				"cube %q joins unknown cube %q", cube.Name, target)
		}
	}
	return nil
}
