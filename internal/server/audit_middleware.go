package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := AuditLogEntry{
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   handlerName(r.URL.Path),
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.Actor = username
		}

		if r.Body != nil {
			requestBody, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = string(requestBody)

			var ids struct {
				LockerID int   `json:"lockerId"`
				OrderID  int64 `json:"orderId"`
			}
			if err := json.Unmarshal(requestBody, &ids); err == nil {
				entry.LockerID = ids.LockerID
				entry.OrderID = ids.OrderID
			}
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry.StatusCode = rec.status
		entry.Response = rec.body.String()

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

// responseRecorder keeps a copy of the status and body so the audit
// entry can carry what was actually sent to the caller.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func handlerName(path string) string {
	switch {
	case strings.HasSuffix(path, "/open-deposit"):
		return "handleOpenDeposit"
	case strings.HasSuffix(path, "/close-deposit"):
		return "handleCloseDeposit"
	case strings.HasSuffix(path, "/open-withdraw"):
		return "handleOpenWithdraw"
	case strings.HasSuffix(path, "/close-withdraw"):
		return "handleCloseWithdraw"
	case strings.HasSuffix(path, "/customer/deposit"):
		return "handleCustomerDeposit"
	case strings.HasSuffix(path, "/customer/withdraw"):
		return "handleCustomerWithdraw"
	case strings.HasSuffix(path, "/health"):
		return "handleHealth"
	}
	return "unknown"
}
