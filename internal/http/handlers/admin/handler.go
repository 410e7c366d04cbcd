package admin

import "github.com/unitv-next/internal/provider"

// Handler serves the administrative endpoints.
type Handler struct {
	*provider.Container
}

// New creates the admin handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
