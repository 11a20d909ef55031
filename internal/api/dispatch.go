package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/infra/observability"
	"github.com/inkwell-pdf/inkwell/internal/ops"
)

// handleOperation is the metered dispatch pipeline. The order is fixed:
// resolve the operation before touching auth, check the balance before
// running the transform, and settle only after the transform succeeds.
// A failed transform never charges.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("operation")
	op, ok := s.registry.Resolve(name)
	if !ok {
		observability.OperationsTotal.WithLabelValues(name, "validation_error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %q", domain.ErrUnknownOperation, name))
		return
	}

	userID, ok := s.authenticate(w, r)
	if !ok {
		observability.OperationsTotal.WithLabelValues(name, "auth_error").Inc()
		return
	}

	enough, available, err := s.ledger.CheckSufficient(r.Context(), userID, op.Cost)
	if err != nil {
		observability.OperationsTotal.WithLabelValues(name, "settle_error").Inc()
		writeError(w, http.StatusInternalServerError, "credit check failed")
		return
	}
	if !enough {
		observability.OperationsTotal.WithLabelValues(name, "insufficient_credits").Inc()
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error": map[string]interface{}{
				"message": domain.ErrInsufficientCredits.Error(),
				"type":    "insufficient_credits",
			},
			"required":  op.Cost,
			"available": available,
		})
		return
	}

	req, err := s.parseUpload(w, r)
	if err != nil {
		observability.OperationsTotal.WithLabelValues(name, "validation_error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := ops.WithUserID(r.Context(), userID)
	start := time.Now()
	result, err := op.Handler(ctx, req)
	observability.OperationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		status, kind := classifyHandlerError(err)
		observability.OperationsTotal.WithLabelValues(name, kind).Inc()
		s.log.Warn("operation failed", "operation", name, "user", userID, "error", err)
		writeError(w, status, err.Error())
		return
	}

	remaining, settleErr := s.ledger.Settle(r.Context(), userID, op.Cost, "op:"+name)
	if settleErr != nil {
		observability.OperationsTotal.WithLabelValues(name, "settle_error").Inc()
		s.log.Error("settlement failed after successful transform",
			"operation", name, "user", userID, "error", settleErr)
		if s.cfg.Billing.StrictSettlement {
			if errors.Is(settleErr, domain.ErrInsufficientCredits) {
				writeError(w, http.StatusPaymentRequired, "credits were spent concurrently; operation not charged")
				return
			}
			writeError(w, http.StatusInternalServerError, "credit settlement failed; result discarded")
			return
		}
		// Lenient policy: the user keeps the artifact, flagged so the
		// operator can reconcile later. The balance was not touched.
		w.Header().Set("X-Settlement", "failed")
		remaining = available
	} else {
		observability.OperationsTotal.WithLabelValues(name, "ok").Inc()
		observability.CreditsSpentTotal.WithLabelValues(name).Add(float64(op.Cost))
	}

	s.writeResult(w, op, result, remaining)
}

// writeResult shapes the success response: raw bytes with metadata
// headers for artifacts, a JSON envelope for structured results.
func (s *Server) writeResult(w http.ResponseWriter, op *ops.Operation, result *ops.Result, remaining int64) {
	if result.Bytes != nil {
		w.Header().Set("Content-Type", result.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.Header().Set("X-Credits-Used", fmt.Sprintf("%d", op.Cost))
		w.Header().Set("X-Credits-Remaining", fmt.Sprintf("%d", remaining))
		if result.Message != "" {
			w.Header().Set("X-Message", result.Message)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(result.Bytes)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"data":        result.JSON,
		"message":     result.Message,
		"creditsUsed": op.Cost,
	})
}

// authenticate resolves the bearer token to a user id, writing the
// error response itself on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return "", false
	}
	userID, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		} else {
			s.log.Error("identity verification failed", "error", err)
			writeError(w, http.StatusBadGateway, "identity service unavailable")
		}
		return "", false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// parseUpload reads the multipart form into an ops.Request. Uploaded
// documents come from the "file" and "files" fields, kept in their
// upload order; every other field becomes an operation parameter.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*ops.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	req := &ops.Request{Params: r.MultipartForm.Value}
	for _, field := range []string{"file", "files"} {
		for _, hdr := range r.MultipartForm.File[field] {
			b, err := readUpload(hdr)
			if err != nil {
				return nil, err
			}
			req.Files = append(req.Files, b)
		}
	}
	return req, nil
}

func readUpload(hdr *multipart.FileHeader) ([]byte, error) {
	f, err := hdr.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", hdr.Filename, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", hdr.Filename, err)
	}
	return b, nil
}

// classifyHandlerError maps a handler error to an HTTP status and a
// metrics label. Parameter mistakes are the caller's fault; anything
// else is a transform failure.
func classifyHandlerError(err error) (int, string) {
	for _, sentinel := range []error{
		domain.ErrNoInputFile,
		domain.ErrNotEnoughInputs,
		domain.ErrInvalidPageRange,
		domain.ErrEmptyPageRange,
		domain.ErrInvalidRotation,
		domain.ErrInvalidOrder,
		domain.ErrNoPagesLeft,
		domain.ErrMissingParameter,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, "validation_error"
		}
	}
	if errors.Is(err, domain.ErrCertificateNotFound) {
		return http.StatusNotFound, "validation_error"
	}
	return http.StatusInternalServerError, "transform_error"
}
