package semantic

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"semcube/internal/domain"
)

// Planner assembles compiled member fragments into one SQL statement. It
// holds no state: every Compile call is independent and referentially
// transparent given the same (cube, request) pair, so callers may cache
// results keyed on the pair and may compile concurrently.
type Planner struct{}

// NewPlanner creates a Planner.
func NewPlanner() *Planner { return &Planner{} }

type selectEntry struct {
	expr     string
	manifest ManifestEntry
}

// Compile validates the request against the cube and produces the SQL
// statement, bind arguments, and output manifest. A request that fails
// validation produces no SQL at all.
func (p *Planner) Compile(cube *domain.CubeDefinition, req domain.QueryRequest) (*CompiledQuery, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Cube != cube.Name {
		return nil, domain.ErrValidation(domain.ValidationInvalidInput,
			"request targets cube %q but %q was supplied", req.Cube, cube.Name)
	}

	ctx := newCompileContext(cube)

	selects, groupable, err := p.buildSelectList(cube, req, ctx)
	if err != nil {
		return nil, err
	}

	where, having, args, err := p.buildPredicates(cube, req, ctx)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, entry := range selects {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s AS %q", entry.expr, entry.manifest.Alias)
	}
	fmt.Fprintf(&sb, " FROM %s AS %s", fromRelation(cube.SourceRelation), cube.Name)

	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		writeConjunction(&sb, where)
	}
	// HAVING predicates aggregate even when no measure is selected, so they
	// force grouping too.
	if groupable > 0 && (len(req.Measures) > 0 || len(having) > 0) {
		sb.WriteString(" GROUP BY ")
		for i := 0; i < groupable; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d", i+1)
		}
	}
	if len(having) > 0 {
		sb.WriteString(" HAVING ")
		writeConjunction(&sb, having)
	}
	if len(req.Order) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range req.Order {
			pos := selectPosition(selects, o.Member)
			if pos == 0 {
				return nil, domain.ErrValidation(domain.ValidationInvalidInput,
					"order member %q is not part of the select list", o.Member)
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d", pos)
			if o.Descending {
				sb.WriteString(" DESC")
			}
		}
	}
	if req.Limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *req.Limit)
	}
	if req.Offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *req.Offset)
	}

	manifest := make([]ManifestEntry, 0, len(selects))
	for _, entry := range selects {
		manifest = append(manifest, entry.manifest)
	}
	if args == nil {
		args = []interface{}{}
	}
	return &CompiledQuery{SQL: sb.String(), Args: args, Manifest: manifest}, nil
}

// buildSelectList compiles dimensions (request order), the granular time
// dimension, then measures (request order). The returned count is the number
// of leading non-aggregated entries that participate in GROUP BY.
func (p *Planner) buildSelectList(cube *domain.CubeDefinition, req domain.QueryRequest, ctx compileContext) ([]selectEntry, int, error) {
	selects := make([]selectEntry, 0, len(req.Dimensions)+len(req.Measures)+1)

	for _, name := range req.Dimensions {
		dim, ok := cube.Dimension(name)
		if !ok {
			return nil, 0, &domain.UnknownFieldError{Cube: cube.Name, Field: name}
		}
		expr, err := compileDimension(dim, "", ctx)
		if err != nil {
			return nil, 0, err
		}
		selects = append(selects, selectEntry{expr: expr, manifest: ManifestEntry{
			Alias:        name,
			MemberType:   MemberDimension,
			SemanticType: string(dim.Type),
			Title:        dim.Title,
			Format:       dim.Format,
		}})
	}

	if td := req.TimeDimension; td != nil && td.Grain != "" {
		dim, ok := cube.Dimension(td.Dimension)
		if !ok {
			return nil, 0, &domain.UnknownFieldError{Cube: cube.Name, Field: td.Dimension}
		}
		if dim.Type != domain.ValueTypeTime {
			return nil, 0, &domain.TypeMismatchError{Field: td.Dimension, Message: "time dimension must have type time"}
		}
		if selectPosition(selects, td.Dimension) != 0 {
			return nil, 0, domain.ErrValidation(domain.ValidationInvalidInput,
				"time dimension %q also appears in dimensions", td.Dimension)
		}
		expr, err := compileDimension(dim, td.Grain, ctx)
		if err != nil {
			return nil, 0, err
		}
		selects = append(selects, selectEntry{expr: expr, manifest: ManifestEntry{
			Alias:        td.Dimension,
			MemberType:   MemberDimension,
			SemanticType: string(domain.ValueTypeTime),
			Title:        dim.Title,
			Format:       dim.Format,
		}})
	}

	groupable := len(selects)

	for _, name := range req.Measures {
		m, ok := cube.Measure(name)
		if !ok {
			return nil, 0, &domain.UnknownFieldError{Cube: cube.Name, Field: name}
		}
		expr, err := compileMeasure(m, ctx)
		if err != nil {
			return nil, 0, err
		}
		selects = append(selects, selectEntry{expr: expr, manifest: ManifestEntry{
			Alias:        name,
			MemberType:   MemberMeasure,
			SemanticType: string(domain.ValueTypeNumber),
			Title:        m.Title,
			Format:       m.Format,
		}})
	}
	return selects, groupable, nil
}

// buildPredicates compiles segments, ad-hoc filters, and the time range into
// WHERE conjuncts; filters targeting measures land in HAVING. Args are
// appended in emission order: WHERE filters first, time bounds, then HAVING.
func (p *Planner) buildPredicates(cube *domain.CubeDefinition, req domain.QueryRequest, ctx compileContext) (where, having []string, args []interface{}, err error) {
	where, err = compileSegments(req.Segments, ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var havingArgs []interface{}
	for _, f := range req.Filters {
		if dim, ok := cube.Dimension(f.Field); ok {
			if err := checkOperator(f, dim.Type); err != nil {
				return nil, nil, nil, err
			}
			expr, rerr := ctx.resolve(dim.SourceExpression)
			if rerr != nil {
				return nil, nil, nil, rerr
			}
			pred, vals := compileFilter(expr, f)
			where = append(where, pred)
			args = append(args, vals...)
			continue
		}
		if m, ok := cube.Measure(f.Field); ok {
			if err := checkOperator(f, domain.ValueTypeNumber); err != nil {
				return nil, nil, nil, err
			}
			expr, merr := compileMeasure(m, ctx)
			if merr != nil {
				return nil, nil, nil, merr
			}
			pred, vals := compileFilter(expr, f)
			having = append(having, pred)
			havingArgs = append(havingArgs, vals...)
			continue
		}
		return nil, nil, nil, &domain.UnknownFieldError{Cube: cube.Name, Field: f.Field}
	}

	if td := req.TimeDimension; td != nil && (td.From != nil || td.To != nil) {
		dim, ok := cube.Dimension(td.Dimension)
		if !ok {
			return nil, nil, nil, &domain.UnknownFieldError{Cube: cube.Name, Field: td.Dimension}
		}
		if dim.Type != domain.ValueTypeTime {
			return nil, nil, nil, &domain.TypeMismatchError{Field: td.Dimension, Message: "date range requires a time dimension"}
		}
		expr, rerr := ctx.resolve(dim.SourceExpression)
		if rerr != nil {
			return nil, nil, nil, rerr
		}
		if td.From != nil {
			from := *td.From
			if td.Grain != "" {
				from = TruncateToGrain(from, td.Grain)
			}
			where = append(where, expr+" >= ?")
			args = append(args, from)
		}
		if td.To != nil {
			to := *td.To
			if td.Grain != "" {
				// Exclusive end aligned up to the next grain boundary.
				if truncated := TruncateToGrain(to, td.Grain); !truncated.Equal(to.UTC()) {
					to = AddGrain(truncated, td.Grain)
				}
			}
			where = append(where, expr+" < ?")
			args = append(args, to)
		}
	}

	args = append(args, havingArgs...)
	return where, having, args, nil
}

// checkOperator validates a filter operator against the target field's value
// type.
func checkOperator(f domain.Filter, vt domain.ValueType) error {
	if f.Operator.Ordering() && vt == domain.ValueTypeString {
		return &domain.TypeMismatchError{Field: f.Field,
			Message: fmt.Sprintf("operator %q is not applicable to string fields", f.Operator)}
	}
	if (f.Operator == domain.OpContains || f.Operator == domain.OpNotContains) && vt != domain.ValueTypeString {
		return &domain.TypeMismatchError{Field: f.Field,
			Message: fmt.Sprintf("operator %q requires a string field", f.Operator)}
	}
	return nil
}

// compileFilter emits one predicate with ? placeholders and returns the bind
// values in placeholder order.
func compileFilter(expr string, f domain.Filter) (string, []interface{}) {
	switch f.Operator {
	case domain.OpSet:
		return expr + " IS NOT NULL", nil
	case domain.OpNotSet:
		return expr + " IS NULL", nil
	case domain.OpEquals:
		if len(f.Values) > 1 {
			return expr + " IN (" + placeholders(len(f.Values)) + ")", f.Values
		}
		return expr + " = ?", f.Values
	case domain.OpNotEquals:
		if len(f.Values) > 1 {
			return expr + " NOT IN (" + placeholders(len(f.Values)) + ")", f.Values
		}
		return expr + " <> ?", f.Values
	case domain.OpContains:
		return expr + " LIKE ?", []interface{}{likePattern(f.Values[0])}
	case domain.OpNotContains:
		return expr + " NOT LIKE ?", []interface{}{likePattern(f.Values[0])}
	case domain.OpGt:
		return expr + " > ?", f.Values[:1]
	case domain.OpGte:
		return expr + " >= ?", f.Values[:1]
	case domain.OpLt:
		return expr + " < ?", f.Values[:1]
	case domain.OpLte:
		return expr + " <= ?", f.Values[:1]
	}
	return "", nil
}

// DrillDown derives the narrower request exposing a measure's declared drill
// members, filtered to reproduce one result row's grouping. The derivation is
// pure: it reads only the cube definition and the provided row values.
func (p *Planner) DrillDown(cube *domain.CubeDefinition, measureName string, row map[string]interface{}) (*domain.QueryRequest, error) {
	m, ok := cube.Measure(measureName)
	if !ok {
		return nil, &domain.UnknownFieldError{Cube: cube.Name, Field: measureName}
	}
	if len(m.DrillMembers) == 0 {
		return nil, domain.ErrValidation(domain.ValidationInvalidInput,
			"measure %q declares no drill members", measureName)
	}

	req := &domain.QueryRequest{Cube: cube.Name}
	for _, member := range m.DrillMembers {
		if _, ok := cube.Dimension(member); ok {
			req.Dimensions = append(req.Dimensions, member)
			continue
		}
		// Load-time validation guarantees the member exists.
		req.Measures = append(req.Measures, member)
	}

	fields := make([]string, 0, len(row))
	for field := range row {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if _, ok := cube.Dimension(field); !ok {
			return nil, &domain.UnknownFieldError{Cube: cube.Name, Field: field}
		}
		if row[field] == nil {
			req.Filters = append(req.Filters, domain.Filter{Field: field, Operator: domain.OpNotSet})
			continue
		}
		req.Filters = append(req.Filters, domain.Filter{
			Field:    field,
			Operator: domain.OpEquals,
			Values:   []interface{}{row[field]},
		})
	}
	return req, nil
}

func fromRelation(source string) string {
	// Only a SELECT statement needs parenthesizing; a table that merely starts
	// with the letters "select" (e.g. "selections") does not.
	head := strings.ToUpper(strings.TrimSpace(source))
	if strings.HasPrefix(head, "SELECT") &&
		len(head) > len("SELECT") && unicode.IsSpace(rune(head[len("SELECT")])) {
		return "(" + source + ")"
	}
	return source
}

func writeConjunction(sb *strings.Builder, predicates []string) {
	for i, pred := range predicates {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString("(")
		sb.WriteString(pred)
		sb.WriteString(")")
	}
}

func selectPosition(selects []selectEntry, alias string) int {
	for i, s := range selects {
		if s.manifest.Alias == alias {
			return i + 1
		}
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func likePattern(v interface{}) string {
	return "%" + fmt.Sprintf("%v", v) + "%"
}
