package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
	"github.com/NaiduBugata/vema-society-sub001/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
	validate     *validator.Validate
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validate:     validator.New(),
	}
}

type adjustmentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	AdjustedBy string          `json:"adjusted_by" validate:"required"`
}

type createLoanRequest struct {
	BorrowerID   int64           `json:"borrower_id" validate:"required,gt=0"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	EMI          decimal.Decimal `json:"emi"`
	AdjustedBy   string          `json:"adjusted_by" validate:"required"`
}

type dividendRequest struct {
	Rate       decimal.Decimal `json:"rate"`
	AdjustedBy string          `json:"adjusted_by" validate:"required"`
}

func (h *AdminHandler) AdjustSalary(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}

	req, ok := h.decodeAdjustment(w, r)
	if !ok {
		return
	}

	emp, err := h.adminService.AdjustSalary(employeeID, req.Amount, req.AdjustedBy)
	if err != nil {
		h.respondAdminError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, emp)
}

func (h *AdminHandler) AdjustThrift(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}

	req, ok := h.decodeAdjustment(w, r)
	if !ok {
		return
	}

	emp, err := h.adminService.AdjustThrift(employeeID, req.Amount, req.AdjustedBy)
	if err != nil {
		h.respondAdminError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, emp)
}

func (h *AdminHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		respondWithError(w, http.StatusBadRequest, "Loan amount must be positive")
		return
	}

	loan, err := h.adminService.CreateLoan(services.CreateLoanParams{
		BorrowerID:   req.BorrowerID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		EMI:          req.EMI,
		AdjustedBy:   req.AdjustedBy,
	})
	if err != nil {
		h.respondAdminError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, loan)
}

func (h *AdminHandler) CloseLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanID")
	if !ok {
		return
	}

	var req struct {
		AdjustedBy string `json:"adjusted_by" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	loan, err := h.adminService.CloseLoan(loanID, req.AdjustedBy)
	if err != nil {
		h.respondAdminError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, loan)
}

func (h *AdminHandler) DistributeDividend(w http.ResponseWriter, r *http.Request) {
	var req dividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Rate.IsPositive() {
		respondWithError(w, http.StatusBadRequest, "Dividend rate must be positive")
		return
	}

	result, err := h.adminService.DistributeDividend(req.Rate, req.AdjustedBy)
	if err != nil {
		h.respondAdminError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "employeeID")
	if !ok {
		return
	}

	audits, err := h.adminService.AuditTrail(employeeID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve audit trail")
		return
	}
	respondWithJSON(w, http.StatusOK, audits)
}

func (h *AdminHandler) decodeAdjustment(w http.ResponseWriter, r *http.Request) (*adjustmentRequest, bool) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.Amount.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Amount must not be negative")
		return nil, false
	}
	return &req, true
}

func (h *AdminHandler) respondAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, services.ErrEmployeeHasActiveLoan):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id < 1 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
