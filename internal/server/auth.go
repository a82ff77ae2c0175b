package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

const adminOperationPrefix = "/guildguard.admin.v1.Admin/"

var (
	ErrMissingToken  = errors.Unauthorized("MISSING_TOKEN", "use Authorization: Bearer <admin-token>")
	ErrInvalidToken  = errors.Unauthorized("INVALID_TOKEN", "invalid admin token")
	ErrAdminDisabled = errors.Forbidden("ADMIN_DISABLED", "admin API is disabled")
)

// AdminAuth authenticates requests with a static bearer token. An empty
// token rejects every request.
func AdminAuth(token string) middleware.Middleware {
	want := sha256.Sum256([]byte(token))
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if token == "" {
				return nil, ErrAdminDisabled
			}
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, ErrMissingToken
			}
			header := tr.RequestHeader().Get("Authorization")
			got, found := strings.CutPrefix(header, "Bearer ")
			if !found || got == "" {
				return nil, ErrMissingToken
			}
			sum := sha256.Sum256([]byte(got))
			if subtle.ConstantTimeCompare(sum[:], want[:]) != 1 {
				return nil, ErrInvalidToken
			}
			return handler(ctx, req)
		}
	}
}
