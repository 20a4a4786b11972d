package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/NaiduBugata/vema-society-sub001/internal/archive"
	"github.com/NaiduBugata/vema-society-sub001/internal/config"
	"github.com/NaiduBugata/vema-society-sub001/internal/reconcile"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
	"github.com/NaiduBugata/vema-society-sub001/internal/services"
)

func SetupRouter(db *sql.DB, cfg *config.Config, log *logrus.Logger) *mux.Router {
	employees := repositories.NewEmployeeRepository(db)
	loans := repositories.NewLoanRepository(db)
	transactions := repositories.NewTransactionRepository(db)
	uploadLogs := repositories.NewUploadLogRepository(db)
	archives := repositories.NewArchiveRepository(db)
	audits := repositories.NewAuditRepository(db)

	reconciler := reconcile.NewReconciler(employees, loans, transactions, log)
	orchestrator := reconcile.NewOrchestrator(reconciler, uploadLogs, log)
	compactor := archive.NewCompactor(transactions, employees, archives, cfg.RetentionMonths, log)
	adminService := services.NewAdminService(db, employees, loans, audits, log)

	uploadHandler := NewUploadHandler(orchestrator, uploadLogs)
	archiveHandler := NewArchiveHandler(compactor, archives, transactions)
	adminHandler := NewAdminHandler(adminService)

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware(log))
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/uploads", uploadHandler.Upload).Methods(http.MethodPost)
	api.HandleFunc("/uploads", uploadHandler.ListUploadLogs).Methods(http.MethodGet)
	api.HandleFunc("/uploads/{batchID}", uploadHandler.GetUploadLog).Methods(http.MethodGet)

	api.HandleFunc("/transactions/{month}", archiveHandler.ListMonthTransactions).Methods(http.MethodGet)
	api.HandleFunc("/archive/run", archiveHandler.RunArchival).Methods(http.MethodPost)
	api.HandleFunc("/archive/{month}", archiveHandler.GetArchivedMonth).Methods(http.MethodGet)

	api.HandleFunc("/employees/{employeeID}/salary", adminHandler.AdjustSalary).Methods(http.MethodPut)
	api.HandleFunc("/employees/{employeeID}/thrift", adminHandler.AdjustThrift).Methods(http.MethodPut)
	api.HandleFunc("/employees/{employeeID}/audits", adminHandler.GetAuditTrail).Methods(http.MethodGet)
	api.HandleFunc("/loans", adminHandler.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanID}/close", adminHandler.CloseLoan).Methods(http.MethodPost)
	api.HandleFunc("/dividends", adminHandler.DistributeDividend).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func loggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
