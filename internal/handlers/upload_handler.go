package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/NaiduBugata/vema-society-sub001/internal/reconcile"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

const maxUploadBytes = 32 << 20

type UploadHandler struct {
	orchestrator *reconcile.Orchestrator
	uploadLogs   repositories.UploadLogRepository

	// Rows of concurrent batches would interleave read-modify-write
	// cycles on the same employees, so uploads run one at a time.
	uploadMutex sync.Mutex
}

func NewUploadHandler(orchestrator *reconcile.Orchestrator, uploadLogs repositories.UploadLogRepository) *UploadHandler {
	return &UploadHandler{
		orchestrator: orchestrator,
		uploadLogs:   uploadLogs,
	}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		respondWithError(w, http.StatusBadRequest, "Only .xlsx files are supported")
		return
	}

	ds, err := sheet.ReadXLSX(file, header.Filename)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to parse workbook: "+err.Error())
		return
	}

	month := r.FormValue("month")

	h.uploadMutex.Lock()
	result, err := h.orchestrator.Run(ds, month)
	h.uploadMutex.Unlock()

	if errors.Is(err, reconcile.ErrNoIdentityColumn) {
		respondWithJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if result.Log.FailureCount > 0 {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}

func (h *UploadHandler) GetUploadLog(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchID"]

	log, err := h.uploadLogs.GetByBatchID(batchID)
	if errors.Is(err, repositories.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Upload log not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve upload log")
		return
	}

	respondWithJSON(w, http.StatusOK, log)
}

func (h *UploadHandler) ListUploadLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	logs, err := h.uploadLogs.List(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list upload logs")
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
