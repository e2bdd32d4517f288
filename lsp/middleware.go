package lsp

import (
	"fmt"
	"runtime/debug"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/methods/workspace"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/tliron/glsp"
)

// recoverHandler turns a panic in a handler into an error for the client.
// It must be deferred directly by the wrapper.
func recoverHandler(ctx *glsp.Context, methodName string, err *error) {
	if r := recover(); r != nil {
		log.Error("[LSP] PANIC in %s: %v\nStack trace:\n%s", methodName, r, debug.Stack())
		workspace.LogError(ctx, "Internal error in %s: %v", methodName, r)
		*err = fmt.Errorf("internal error in %s", methodName)
	}
}

// finish logs the outcome of a handler and wraps its error with the method name
func finish(ctx *glsp.Context, methodName string, req *types.RequestContext, err error) error {
	if err != nil {
		log.Error("[LSP] %s error: %v", methodName, err)
		workspace.LogError(ctx, "%s: %v", methodName, err)
		return fmt.Errorf("%s: %w", methodName, err)
	}

	for _, w := range req.Warnings() {
		workspace.LogWarning(ctx, "%s: %v", methodName, w)
	}

	log.Debug("[LSP] %s completed", methodName)
	return nil
}

// method wraps an LSP handler that returns (result, error) with middleware.
// Returns the underlying function type so it's compatible with protocol.Handler field types
func method[P, R any](
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext, P) (R, error),
) func(*glsp.Context, P) (R, error) {
	return func(ctx *glsp.Context, params P) (result R, err error) {
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("[LSP] %s started", methodName)
		req := types.NewRequestContext(s, ctx)
		result, err = handler(req, params)
		if err = finish(ctx, methodName, req, err); err != nil {
			var zero R
			return zero, err
		}
		return result, nil
	}
}

// notify wraps an LSP notification handler that returns only error
func notify[P any](
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext, P) error,
) func(*glsp.Context, P) error {
	return func(ctx *glsp.Context, params P) (err error) {
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("[LSP] %s started", methodName)
		req := types.NewRequestContext(s, ctx)
		return finish(ctx, methodName, req, handler(req, params))
	}
}

// noParam wraps an LSP handler that takes no params (like Shutdown)
func noParam(
	s types.ServerContext,
	methodName string,
	handler func(*types.RequestContext) error,
) func(*glsp.Context) error {
	return func(ctx *glsp.Context) (err error) {
		defer recoverHandler(ctx, methodName, &err)

		log.Debug("[LSP] %s started", methodName)
		req := types.NewRequestContext(s, ctx)
		return finish(ctx, methodName, req, handler(req))
	}
}
