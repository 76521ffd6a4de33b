// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"crypto/subtle"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

const (
	// APITokenHeader is the header name for the API token.
	APITokenHeader = "X-Api-Token"
)

var errInvalidToken = errors.New("missing or invalid api token")

// tokenInterceptor rejects calls whose X-Api-Token header does not match.
type tokenInterceptor struct {
	token string
}

// NewTokenInterceptor creates an interceptor that validates the API token on
// unary and streaming calls.
func NewTokenInterceptor(token string) connect.Interceptor {
	return &tokenInterceptor{token: token}
}

func (i *tokenInterceptor) check(header http.Header) error {
	got := header.Get(APITokenHeader)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(i.token)) != 1 {
		return connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
	}
	return nil
}

func (i *tokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if err := i.check(req.Header()); err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *tokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *tokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if err := i.check(conn.RequestHeader()); err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

// clientTokenInterceptor attaches the API token to outgoing calls.
type clientTokenInterceptor struct {
	token string
}

func (i *clientTokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		req.Header().Set(APITokenHeader, i.token)
		return next(ctx, req)
	}
}

func (i *clientTokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set(APITokenHeader, i.token)
		return conn
	}
}

func (i *clientTokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
