package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
	"github.com/sngm3741/contact-relay/api/internal/interfaces/http/common"
)

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (req submitRequest) toSubmission() domain.Submission {
	return domain.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
}

// submitHandler handles POST /api/contact.
// The caller always receives a {success, message} body.
func (h *Handler) submitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req submitRequest
		if err := common.DecodeJSON(r, common.MaxContactRequestBody, &req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, domain.Failed(domain.MessageInvalidBody))
			return
		}

		// 送信は一度開始したら完了まで実行する。クライアント切断で中断しない。
		ctx := context.WithoutCancel(r.Context())
		result, err := h.submissions.Handle(ctx, req.toSubmission())
		common.WriteJSON(h.logger, w, statusFor(err), result)
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
