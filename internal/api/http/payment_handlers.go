package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/payment"
)

// POST /payments/verify
func VerifyPaymentHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req payment.Confirmation
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := svc.Confirm(r.Context(), subject(r), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "payment verified", e)
	}
}
