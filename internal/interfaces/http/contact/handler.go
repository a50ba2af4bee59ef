package contact

import (
	"log"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/contact-relay/api/internal/contact/application"
)

// Handler wires the contact HTTP endpoint to the submission service.
type Handler struct {
	logger      *log.Logger
	submissions application.SubmissionService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *log.Logger
	Submissions application.SubmissionService
}

// NewHandler constructs the contact HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:      cfg.Logger,
		submissions: cfg.Submissions,
	}
}

// Register mounts the contact routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/contact", h.submitHandler())
}
