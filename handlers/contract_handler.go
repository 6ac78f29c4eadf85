package handlers

import (
	"context"
	"io"
	"log"
	"net/http"

	"contractguard-backend/models"
	"contractguard-backend/service"
	"contractguard-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles HTTP requests for contracts and analysis runs
type ContractHandler struct {
	contractService *service.ContractService
	analysisService *service.AnalysisService
	store           storage.Storage
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *service.ContractService, analysisService *service.AnalysisService, store storage.Storage) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		analysisService: analysisService,
		store:           store,
	}
}

// CreateContractRequest represents the request body for registering a contract
type CreateContractRequest struct {
	UserID       string  `json:"user_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Text         string  `json:"text" binding:"required"`
	Jurisdiction *string `json:"jurisdiction"`
	SourceFileID *string `json:"source_file_id"`
}

// CreateContract handles POST /api/contracts
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user_id format",
			},
		})
		return
	}

	serviceReq := service.CreateContractRequest{
		UserID:       userID,
		Name:         req.Name,
		Text:         req.Text,
		Jurisdiction: req.Jurisdiction,
	}

	if req.SourceFileID != nil {
		fileID, err := uuid.Parse(*req.SourceFileID)
		if err == nil {
			serviceReq.SourceFileID = &fileID
		}
	}

	result, err := h.contractService.CreateContract(c.Request.Context(), serviceReq)
	if err != nil {
		status := http.StatusInternalServerError
		code := "CREATE_FAILED"
		if err == service.ErrMissingContractData {
			status = http.StatusBadRequest
			code = "MISSING_DATA"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Contract,
	})
}

// GetContract handles GET /api/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid contract ID format")
	if !ok {
		return
	}

	result, err := h.contractService.GetContract(c.Request.Context(), service.GetContractRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Contract not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Contract,
	})
}

// ListContracts handles GET /api/contracts
func (h *ContractHandler) ListContracts(c *gin.Context) {
	userIDStr := c.Query("user_id")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid or missing user_id query parameter",
			},
		})
		return
	}

	serviceReq := service.ListContractsRequest{UserID: userID}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ContractStatus(statusStr)
		serviceReq.Status = &status
	}

	result, err := h.contractService.ListContracts(c.Request.Context(), serviceReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Contracts,
	})
}

// StartAnalysis handles POST /api/contracts/:id/analyze
func (h *ContractHandler) StartAnalysis(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid contract ID format")
	if !ok {
		return
	}

	// Create run (synchronous, fast)
	result, err := h.analysisService.StartAnalysis(c.Request.Context(), service.StartAnalysisRequest{ContractID: id})
	if err != nil {
		status := http.StatusInternalServerError
		code := "ANALYSIS_FAILED"
		if err == service.ErrContractNotFound {
			status = http.StatusNotFound
			code = "NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Spawn background goroutine for the pipeline work.
	// Use background context (not request context) to avoid cancellation.
	go func() {
		bgCtx := context.Background()
		if err := h.analysisService.ProcessAnalysis(bgCtx, result.RunID); err != nil {
			log.Printf("Analysis run %s failed: %v", result.RunID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"run_id":  result.RunID,
			"status":  "pending",
			"message": "Analysis run created. Poll /api/runs/:id for updates.",
		},
	})
}

// GetRunStatus handles GET /api/runs/:id
func (h *ContractHandler) GetRunStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid run ID format")
	if !ok {
		return
	}

	result, err := h.analysisService.GetRunStatus(c.Request.Context(), service.GetRunStatusRequest{RunID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Analysis run not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Run,
	})
}

// GetReport handles GET /api/runs/:id/report
func (h *ContractHandler) GetReport(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid run ID format")
	if !ok {
		return
	}

	result, err := h.analysisService.GetRunStatus(c.Request.Context(), service.GetRunStatusRequest{RunID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Analysis run not found",
			},
		})
		return
	}

	if result.Run.Report.Report == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPORT_NOT_READY",
				"message": "Analysis run has not produced a report yet",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Run.Report.Report,
	})
}

// DownloadPatchedContract handles GET /api/runs/:id/contract
func (h *ContractHandler) DownloadPatchedContract(c *gin.Context) {
	h.downloadArtifact(c, func(run *models.AnalysisRun) *string {
		return run.PatchedDocumentPath
	}, "text/plain; charset=utf-8")
}

// DownloadAnnotations handles GET /api/runs/:id/annotations
func (h *ContractHandler) DownloadAnnotations(c *gin.Context) {
	h.downloadArtifact(c, func(run *models.AnalysisRun) *string {
		return run.AnnotationsPath
	}, "text/csv")
}

func (h *ContractHandler) downloadArtifact(c *gin.Context, pathOf func(*models.AnalysisRun) *string, contentType string) {
	id, ok := parseIDParam(c, "Invalid run ID format")
	if !ok {
		return
	}

	result, err := h.analysisService.GetRunStatus(c.Request.Context(), service.GetRunStatusRequest{RunID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Analysis run not found",
			},
		})
		return
	}

	path := pathOf(result.Run)
	if path == nil || *path == "" {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARTIFACT_NOT_READY",
				"message": "Artifact has not been produced yet",
			},
		})
		return
	}

	reader, err := h.store.Download(c.Request.Context(), *path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Printf("Warning: failed to stream artifact: %v", err)
	}
}

func parseIDParam(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": message,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
