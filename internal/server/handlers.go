package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/models"
	"github.com/hyperjump/hanron/internal/storage"
)

// maxUploadBytes bounds a single report upload.
const maxUploadBytes = 50 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Short Report Rebuttal Assistant API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"upload":   "/api/upload_report",
			"extract":  "/api/extract_claims",
			"analyze":  "/api/analyze",
			"download": "/api/download_report/{report_id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":            "healthy",
		"collection_exists": false,
		"collection_count":  0,
		"reports_dir":       s.config.Storage.ReportsDir,
	}
	// Only inspect the collection when it already exists on disk; health
	// checks must not create one.
	if _, err := os.Stat(s.config.Storage.CollectionDir); err == nil {
		if coll, err := s.indexer.Collection(r.Context()); err == nil {
			if count, err := coll.Store.CountChunks(r.Context()); err == nil {
				resp["collection_exists"] = true
				resp["collection_count"] = count
			}
		}
		if bytes, err := storage.DiskUsageBytes(s.config.Storage.CollectionDir); err == nil {
			resp["disk_usage_bytes"] = bytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckAndIndex(w http.ResponseWriter, r *http.Request) {
	count, err := s.indexer.Index(r.Context(), s.config.Storage.SourceDir)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		if errors.Is(err, models.ErrNoDocuments) || errors.Is(err, models.ErrNotFound) {
			s.respondJSON(w, http.StatusOK, map[string]interface{}{
				"indexed": false,
				"message": "no internal documents found to index",
			})
			return
		}
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"indexed": true,
		"count":   count,
		"message": "evidence collection ready",
	})
}

func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	art, err := s.pipeline.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error("upload failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": art.ReportID,
		"filename":  art.Filename,
		"num_pages": len(art.Pages),
		"message":   "report uploaded and text extracted",
	})
}

type extractClaimsRequest struct {
	ReportID string `json:"report_id"`
}

func (s *Server) handleExtractClaims(w http.ResponseWriter, r *http.Request) {
	var req extractClaimsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReportID == "" {
		s.respondError(w, http.StatusBadRequest, "report_id is required")
		return
	}
	art, cached, err := s.pipeline.ExtractClaims(r.Context(), req.ReportID)
	if err != nil {
		s.logger.Error("claim extraction failed", zap.String("report_id", req.ReportID), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": art.ReportID,
		"claims":    art.Claims,
		"cached":    cached,
	})
}

type analyzeRequest struct {
	ReportID  string `json:"report_id"`
	TopK      int    `json:"top_k"`
	MaxClaims int    `json:"max_claims"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReportID == "" {
		s.respondError(w, http.StatusBadRequest, "report_id is required")
		return
	}
	rpt, err := s.pipeline.Analyze(r.Context(), req.ReportID, req.TopK, req.MaxClaims)
	if err != nil {
		s.logger.Error("analysis failed", zap.String("report_id", req.ReportID), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": rpt,
	})
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}

	var path, contentType string
	switch format {
	case "md":
		path = s.pipeline.Artifacts().ReportPath(reportID, true)
		contentType = "text/markdown; charset=utf-8"
	case "json":
		path = s.pipeline.Artifacts().ReportPath(reportID, false)
		contentType = "application/json"
	default:
		s.respondError(w, http.StatusBadRequest, "format must be 'md' or 'json'")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "report not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// statusFor maps pipeline sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrFormat), errors.Is(err, models.ErrNoDocuments):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrClaimBounds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrConnectivity):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
