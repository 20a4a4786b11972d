package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/NaiduBugata/vema-society-sub001/internal/archive"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

type ArchiveHandler struct {
	compactor    *archive.Compactor
	archives     repositories.ArchiveRepository
	transactions repositories.TransactionRepository
}

func NewArchiveHandler(
	compactor *archive.Compactor,
	archives repositories.ArchiveRepository,
	transactions repositories.TransactionRepository,
) *ArchiveHandler {
	return &ArchiveHandler{
		compactor:    compactor,
		archives:     archives,
		transactions: transactions,
	}
}

// RunArchival triggers a compaction pass. Typically called after the
// yearly closing, but safe to call at any time.
func (h *ArchiveHandler) RunArchival(w http.ResponseWriter, r *http.Request) {
	result, err := h.compactor.Run()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *ArchiveHandler) GetArchivedMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}

	am, err := h.archives.GetByMonth(month)
	if errors.Is(err, repositories.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "No archive for this month")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve archive")
		return
	}

	respondWithJSON(w, http.StatusOK, am)
}

func (h *ArchiveHandler) ListMonthTransactions(w http.ResponseWriter, r *http.Request) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}

	txns, err := h.transactions.ListByMonth(month)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	respondWithJSON(w, http.StatusOK, txns)
}

func pathMonth(w http.ResponseWriter, r *http.Request) (string, bool) {
	month := mux.Vars(r)["month"]
	if _, err := time.Parse("2006-01", month); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid month format. Use YYYY-MM")
		return "", false
	}
	return month, true
}
