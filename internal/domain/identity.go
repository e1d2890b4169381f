package domain

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// SubjectStrategy pulls a subject out of a raw JSON request context.
type SubjectStrategy func(requestContext []byte) (string, bool)

// ClaimPath reads a non-empty string at a gjson path.
func ClaimPath(path string) SubjectStrategy {
	return func(requestContext []byte) (string, bool) {
		if !gjson.ValidBytes(requestContext) {
			return "", false
		}
		v := gjson.GetBytes(requestContext, path)
		if v.Type != gjson.String || v.Str == "" {
			return "", false
		}
		return v.Str, true
	}
}

// DefaultSubjectStrategies lists every authorizer shape the gateway has ever sent, newest first.
var DefaultSubjectStrategies = []SubjectStrategy{
	ClaimPath("authorizer.jwt.claims.sub"), // HTTP API JWT authorizer
	ClaimPath("authorizer.claims.sub"),     // REST API Cognito authorizer
}

type IdentityResolver struct {
	strategies []SubjectStrategy
}

func NewIdentityResolver(strategies ...SubjectStrategy) *IdentityResolver {
	if len(strategies) == 0 {
		strategies = DefaultSubjectStrategies
	}
	return &IdentityResolver{strategies: strategies}
}

// Resolve returns the first subject any strategy finds. The claim is trusted as is:
// the upstream authorizer has already verified it.
func (r *IdentityResolver) Resolve(requestContext []byte) (string, error) {
	for _, extract := range r.strategies {
		if sub, ok := extract(requestContext); ok {
			return sub, nil
		}
	}
	return "", fmt.Errorf("%w: no subject in authorization context", ErrUnauthorized)
}
