package httpserver

import (
	"errors"
	"net/http"

	paymenterrors "eduweb/contexts/commerce/payment-service/domain/errors"
	paymenthttp "eduweb/contexts/commerce/payment-service/transport/http"
)

func writePaymentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, paymenthttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writePaymentDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, paymenterrors.ErrInvalidPaymentInput):
		writePaymentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, paymenterrors.ErrPaymentNotFound):
		writePaymentError(w, http.StatusNotFound, "payment_not_found", err.Error())
	default:
		s.logInternal("payment-service", r, err)
		writePaymentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.CreatePaymentRequest
	if !decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.modules.Payment.Handler.CreatePaymentHandler(r.Context(), req)
	if err != nil {
		s.writePaymentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Payment.Handler.GetPaymentHandler(r.Context(), r.PathValue("payment_id"))
	if err != nil {
		s.writePaymentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaymentComplete(w http.ResponseWriter, r *http.Request) {
	var req paymenthttp.CompletePaymentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, writePaymentError) {
		return
	}
	resp, err := s.modules.Payment.Handler.CompletePaymentHandler(r.Context(), r.PathValue("payment_id"), req)
	if err != nil {
		s.writePaymentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
