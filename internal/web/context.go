package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvgate/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// validation history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, clientIP(r), r.UserAgent())
}
