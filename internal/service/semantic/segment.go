package semantic

import "semcube/internal/domain"

// compileSegments resolves each named segment's predicate. Segments compose
// by conjunction only; the assembler ANDs them with ad-hoc filters and time
// bounds.
func compileSegments(names []string, ctx compileContext) ([]string, error) {
	predicates := make([]string, 0, len(names))
	for _, name := range names {
		seg, ok := ctx.cube.Segment(name)
		if !ok {
			return nil, &domain.UnknownSegmentError{Cube: ctx.cube.Name, Segment: name}
		}
		resolved, err := ctx.resolve(seg.Predicate)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, resolved)
	}
	return predicates, nil
}
