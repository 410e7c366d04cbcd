package public

import "github.com/unitv-next/internal/provider"

// Handler serves the buyer-facing endpoints.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
