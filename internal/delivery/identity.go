package delivery

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/tidwall/gjson"
)

type ctxKey int

const (
	requestContextKey ctxKey = iota
	subjectKey
)

// WithRequestContext attaches an API Gateway request context (raw JSON) to ctx.
// It takes precedence over the forwarded header.
func WithRequestContext(ctx context.Context, raw []byte) context.Context {
	return context.WithValue(ctx, requestContextKey, raw)
}

// SubjectFrom returns the resolved subject, or "" for anonymous requests.
func SubjectFrom(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

// IdentityMiddleware resolves the caller's subject when one is present. It never
// rejects: each operation decides whether it needs an identity. An empty header
// name disables the forwarded header; only WithRequestContext can then identify.
func IdentityMiddleware(resolver *domain.IdentityResolver, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := ctx.Value(requestContextKey).([]byte)
			if !ok && header != "" {
				raw = headerContext(r.Header.Get(header))
			}
			if len(raw) > 0 {
				if sub, err := resolver.Resolve(raw); err == nil {
					ctx = context.WithValue(ctx, subjectKey, sub)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// headerContext accepts the forwarded context as plain or base64-encoded JSON.
func headerContext(v string) []byte {
	if v == "" {
		return nil
	}
	if gjson.Valid(v) {
		return []byte(v)
	}
	if decoded, err := base64.StdEncoding.DecodeString(v); err == nil && gjson.ValidBytes(decoded) {
		return decoded
	}
	return nil
}
