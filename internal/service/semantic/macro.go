package semantic

import (
	"strings"

	"semcube/internal/domain"
)

// SelfToken is the macro inside declaration SQL fragments that denotes the
// current cube's aliased source relation.
const SelfToken = "${CUBE}"

// AliasFunc maps a cube name to its table alias within one compiled
// statement. The second return is false when no alias exists for the cube.
type AliasFunc func(cubeName string) (string, bool)

// ResolveTemplate replaces every occurrence of the self-reference token with
// the alias of the current cube. Resolution is total: a template carrying the
// token with no alias mapping is a wiring bug and returns
// UnresolvedTokenError.
func ResolveTemplate(template, currentCube string, aliasFor AliasFunc) (string, error) {
	if !strings.Contains(template, SelfToken) {
		return template, nil
	}
	alias, ok := aliasFor(currentCube)
	if !ok || alias == "" {
		return "", &domain.UnresolvedTokenError{Cube: currentCube, Template: template}
	}
	return strings.ReplaceAll(template, SelfToken, alias), nil
}
