package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport"
)

type headerCarrier http.Header

func (h headerCarrier) Get(key string) string      { return http.Header(h).Get(key) }
func (h headerCarrier) Set(key, value string)      { http.Header(h).Set(key, value) }
func (h headerCarrier) Add(key, value string)      { http.Header(h).Add(key, value) }
func (h headerCarrier) Values(key string) []string { return http.Header(h).Values(key) }
func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

type testTransport struct {
	transport.Transporter
	header headerCarrier
}

func (t *testTransport) Operation() string               { return adminOperationPrefix + "CheckImage" }
func (t *testTransport) RequestHeader() transport.Header { return t.header }
func (t *testTransport) ReplyHeader() transport.Header   { return headerCarrier{} }
func (t *testTransport) Kind() transport.Kind            { return transport.KindHTTP }

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		authorization string
		wantReason    string
	}{
		{name: "valid", token: "s3cret", authorization: "Bearer s3cret"},
		{name: "missing header", token: "s3cret", wantReason: ErrMissingToken.Reason},
		{name: "not bearer", token: "s3cret", authorization: "Basic s3cret", wantReason: ErrMissingToken.Reason},
		{name: "empty bearer", token: "s3cret", authorization: "Bearer ", wantReason: ErrMissingToken.Reason},
		{name: "wrong token", token: "s3cret", authorization: "Bearer guess", wantReason: ErrInvalidToken.Reason},
		{name: "disabled", token: "", authorization: "Bearer ", wantReason: ErrAdminDisabled.Reason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := headerCarrier{}
			if tt.authorization != "" {
				header.Set("Authorization", tt.authorization)
			}
			ctx := transport.NewServerContext(context.Background(), &testTransport{header: header})

			called := false
			h := AdminAuth(tt.token)(func(context.Context, interface{}) (interface{}, error) {
				called = true
				return "ok", nil
			})
			_, err := h(ctx, nil)
			if tt.wantReason == "" {
				if err != nil || !called {
					t.Fatalf("AdminAuth() error = %v, called = %v", err, called)
				}
				return
			}
			if called {
				t.Error("handler ran for a rejected request")
			}
			if got := errors.FromError(err).Reason; got != tt.wantReason {
				t.Errorf("reason = %q, want %q", got, tt.wantReason)
			}
		})
	}

	t.Run("no transport", func(t *testing.T) {
		h := AdminAuth("s3cret")(func(context.Context, interface{}) (interface{}, error) {
			return nil, nil
		})
		if _, err := h(context.Background(), nil); !errors.Is(err, ErrMissingToken) {
			t.Errorf("error = %v, want ErrMissingToken", err)
		}
	})
}
