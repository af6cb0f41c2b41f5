package semantic

import (
	"fmt"
	"strings"
	"unicode"

	"semcube/internal/domain"
)

// compileMeasure emits the SQL aggregate expression for one measure.
//
// Filtered measures evaluate their predicates inside a CASE expression wrapped
// around the aggregation argument, so a filtered count scans the same row set
// as the unfiltered one: the sum of mutually exclusive filtered counts over a
// categorical dimension equals the unfiltered count. AVG over an empty or
// fully filtered-out set yields NULL by SQL semantics, never zero.
func compileMeasure(m domain.MeasureDefinition, ctx compileContext) (string, error) {
	expr, err := ctx.resolve(m.SourceExpression)
	if err != nil {
		return "", err
	}

	predicate, err := measurePredicate(m, ctx)
	if err != nil {
		return "", err
	}

	switch m.Aggregation {
	case domain.AggregationCount:
		arg := expr
		if arg == "" {
			if predicate == "" {
				return "COUNT(*)", nil
			}
			arg = "1"
		}
		if predicate != "" {
			arg = fmt.Sprintf("CASE WHEN %s THEN %s END", predicate, arg)
		}
		return fmt.Sprintf("COUNT(%s)", arg), nil

	case domain.AggregationAverage:
		arg := expr
		if predicate != "" {
			arg = fmt.Sprintf("CASE WHEN %s THEN %s END", predicate, arg)
		}
		return fmt.Sprintf("AVG(%s)", arg), nil

	case domain.AggregationNumber:
		return guardDivision(expr), nil
	}

	return "", domain.ErrValidation(domain.ValidationInvalidAggregationKind,
		"measure %q has aggregation kind %q", m.Name, m.Aggregation)
}

func measurePredicate(m domain.MeasureDefinition, ctx compileContext) (string, error) {
	if len(m.Filters) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(m.Filters))
	for _, f := range m.Filters {
		resolved, err := ctx.resolve(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, resolved)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, ") AND (") + ")", nil
}

// guardDivision rewrites each division in a custom numeric expression so that
// a zero denominator yields NULL instead of a database error. The denominator
// operand is wrapped in NULLIF(..., 0) unless it already is a NULLIF call.
// This reproduces the percentage-of-total pattern
// ROUND(matching * 100.0 / NULLIF(total, 0), 1) for declarations that wrote
// the bare division.
func guardDivision(expr string) string {
	var out strings.Builder
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch c {
		case '\'':
			end := scanString(expr, i)
			out.WriteString(expr[i:end])
			i = end
		case '/':
			out.WriteByte('/')
			i++
			start := i
			for i < len(expr) && unicode.IsSpace(rune(expr[i])) {
				i++
			}
			out.WriteString(expr[start:i])
			opEnd := scanOperand(expr, i)
			if opEnd == i {
				continue
			}
			operand := expr[i:opEnd]
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(operand)), "NULLIF") {
				out.WriteString(operand)
			} else {
				out.WriteString("NULLIF(")
				out.WriteString(operand)
				out.WriteString(", 0)")
			}
			i = opEnd
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// scanString returns the index just past a single-quoted SQL string starting
// at i, honoring doubled-quote escapes.
func scanString(s string, i int) int {
	i++ // opening quote
	for i < len(s) {
		if s[i] == '\'' {
			if i+1 < len(s) && s[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// scanOperand returns the index just past one denominator operand starting at
// i: a parenthesized group, a literal, or an identifier optionally followed
// by a call argument list.
func scanOperand(s string, i int) int {
	if i >= len(s) {
		return i
	}
	if s[i] == '(' {
		return scanParens(s, i)
	}
	if s[i] == '\'' {
		return scanString(s, i)
	}
	start := i
	for i < len(s) {
		c := rune(s[i])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == '$' || c == '{' || c == '}' {
			i++
			continue
		}
		break
	}
	if i == start {
		return start
	}
	// function call: consume the balanced argument list
	j := i
	for j < len(s) && unicode.IsSpace(rune(s[j])) {
		j++
	}
	if j < len(s) && s[j] == '(' {
		return scanParens(s, j)
	}
	return i
}

// scanParens returns the index just past the parenthesized group starting at
// i, skipping quoted strings inside it.
func scanParens(s string, i int) int {
	depth := 0
	for i < len(s) {
		switch s[i] {
		case '\'':
			i = scanString(s, i)
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}
