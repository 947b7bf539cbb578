//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/engine"
)

type Engine interface {
	OpenDeposit(ctx context.Context, lockerID int) error
	CloseDeposit(ctx context.Context, lockerID int, orderID int64) (*engine.DepositReceipt, error)
	OpenWithdraw(ctx context.Context, lockerID int, password string) (int64, error)
	CloseWithdraw(ctx context.Context, lockerID int, orderID int64) error
	CustomerDeposit(ctx context.Context, depositCode string) (*engine.CustomerDepositResult, error)
	CustomerWithdraw(ctx context.Context, password string) (*engine.CustomerWithdrawResult, error)
	Health(ctx context.Context) bool
}

type Server struct {
	engine       Engine
	server       *http.Server
	AuditManager *AuditManager
	logger       *zap.SugaredLogger

	adminUsername     string
	adminPasswordHash []byte
}

func New(eng Engine, adminUsername, adminPassword string) (*Server, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Server{
		engine:            eng,
		AuditManager:      NewAuditManager(2, 5, 500*time.Millisecond),
		logger:            zap.S().Named("server"),
		adminUsername:     adminUsername,
		adminPasswordHash: passwordHash,
	}, nil
}

func (s *Server) Run(ctx context.Context, port string) error {
	// WriteTimeout has to outlast the door-wait polling loop or close
	// requests are cut off mid-wait.
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.AuditManager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	s.logger.Infow("server started", "addr", s.server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.AuditManager.Shutdown(ctx)
	return nil
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.metricsMiddleware)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.auditLogMiddleware)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	hw := api.PathPrefix("/locker-hardware").Subrouter()
	hw.Use(s.basicAuthMiddleware)
	hw.HandleFunc("/open-deposit", s.handleOpenDeposit).Methods(http.MethodPost)
	hw.HandleFunc("/close-deposit", s.handleCloseDeposit).Methods(http.MethodPost)
	hw.HandleFunc("/open-withdraw", s.handleOpenWithdraw).Methods(http.MethodPost)
	hw.HandleFunc("/close-withdraw", s.handleCloseWithdraw).Methods(http.MethodPost)

	customer := api.PathPrefix("/customer").Subrouter()
	customer.HandleFunc("/deposit", s.handleCustomerDeposit).Methods(http.MethodPost)
	customer.HandleFunc("/withdraw", s.handleCustomerWithdraw).Methods(http.MethodPost)

	return router
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != s.adminUsername ||
			bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"message": message,
		"success": false,
	})
}

// closetID identifies this cabinet in responses. Multi-closet support
// would thread it through config; a single cabinet reports 1.
const closetID = 1

// statusFor translates the lifecycle error taxonomy into response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrLockerNotFound), errors.Is(err, engine.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrLockerReserved):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrLockerOccupied), errors.Is(err, engine.ErrLockerNotOccupied):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidCode), errors.Is(err, engine.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, engine.ErrDoorNotClosed):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Errorw("operation failed", "operation", operation, "error", err)
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func (s *Server) handleOpenDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LockerID int `json:"lockerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LockerID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.engine.OpenDeposit(r.Context(), req.LockerID); err != nil {
		s.respondEngineError(w, "open_deposit", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"closetId": closetID,
		"lockerId": req.LockerID,
		"message":  "Locker opened",
	})
}

func (s *Server) handleCloseDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LockerID int   `json:"lockerId"`
		OrderID  int64 `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LockerID <= 0 || req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := s.engine.CloseDeposit(r.Context(), req.LockerID, req.OrderID)
	if err != nil {
		s.respondEngineError(w, "close_deposit", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"closetId":         closetID,
		"lockerId":         receipt.LockerID,
		"orderId":          receipt.OrderID,
		"depositCode":      receipt.DepositCode,
		"withdrawPassword": receipt.WithdrawPassword,
		"message":          "Deposit closed",
	})
}

func (s *Server) handleOpenWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LockerID int    `json:"lockerId"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LockerID <= 0 || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orderID, err := s.engine.OpenWithdraw(r.Context(), req.LockerID, req.Password)
	if err != nil {
		s.respondEngineError(w, "open_withdraw", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"closetId": closetID,
		"lockerId": req.LockerID,
		"orderId":  orderID,
		"message":  "Locker opened",
	})
}

func (s *Server) handleCloseWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LockerID int   `json:"lockerId"`
		OrderID  int64 `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LockerID <= 0 || req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.engine.CloseWithdraw(r.Context(), req.LockerID, req.OrderID); err != nil {
		s.respondEngineError(w, "close_withdraw", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"closetId": closetID,
		"lockerId": req.LockerID,
		"message":  "Locker closed",
	})
}

func (s *Server) handleCustomerDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DepositCode string `json:"depositCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DepositCode == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.engine.CustomerDeposit(r.Context(), req.DepositCode)
	if err != nil {
		s.respondEngineError(w, "customer_deposit", err)
		return
	}

	message := "Locker opened"
	if result.DoorClosed {
		message = "Locker closed after deposit"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lockerId": result.LockerID,
		"message":  message,
		"success":  true,
	})
}

func (s *Server) handleCustomerWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.engine.CustomerWithdraw(r.Context(), req.Password)
	if err != nil {
		s.respondEngineError(w, "customer_withdraw", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lockerId": result.LockerID,
		"orderId":  result.OrderID,
		"message":  "Locker opened",
		"success":  true,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Health(r.Context()) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "degraded",
			"hardware": false,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"hardware": true,
	})
}
