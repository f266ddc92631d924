package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"convohub-platform/internal/analysis"
	"convohub-platform/internal/auth"
	"convohub-platform/internal/calls"
	"convohub-platform/internal/conversation"
	"convohub-platform/internal/pipeline"
	"convohub-platform/internal/reporting"
	"convohub-platform/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth          *auth.Manager
	Conversations *conversation.Service
	Calls         calls.Repository
	Analyzer      *analysis.Analyzer
	Applier       *pipeline.Applier
	Reporting     *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	UserID     string `json:"user_id"`
	MerchantID string `json:"merchant_id"`
	Role       string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.MerchantID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, merchant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.MerchantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Conversations ---

func (h Handlers) ListConversations(c *gin.Context) {
	if h.Conversations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversations not configured"})
		return
	}
	merchantID, err := auth.MerchantID(c.Request.Context())
	if err != nil || merchantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "merchant_id required"})
		return
	}

	threads, err := h.Conversations.ListThreads(c.Request.Context(), merchantID)
	if err != nil {
		logger.FromGin(c).Error("conversation list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversation list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": threads})
}

func (h Handlers) GetConversation(c *gin.Context) {
	if h.Conversations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversations not configured"})
		return
	}
	merchantID, err := auth.MerchantID(c.Request.Context())
	if err != nil || merchantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "merchant_id required"})
		return
	}
	contactPoint := c.Param("contact_point")

	thread, err := h.Conversations.GetThread(c.Request.Context(), merchantID, contactPoint)
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	case errors.Is(err, conversation.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "contact_point required"})
		return
	case err != nil:
		logger.FromGin(c).Error("conversation lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversation lookup failed"})
		return
	}
	c.JSON(http.StatusOK, thread)
}

// --- Analysis ---

// AnalyzeCall runs analysis for a stored call and applies the result,
// returning both synchronously.
func (h Handlers) AnalyzeCall(c *gin.Context) {
	if h.Analyzer == nil || h.Applier == nil || h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analysis not configured"})
		return
	}
	merchantID, err := auth.MerchantID(c.Request.Context())
	if err != nil || merchantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "merchant_id required"})
		return
	}
	callID := c.Param("id")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call id required"})
		return
	}

	call, err := h.Calls.GetByID(c.Request.Context(), merchantID, callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		logger.FromGin(c).Error("call lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}

	result := h.Analyzer.Analyze(c.Request.Context(), analysis.NewTranscript(call.Transcript))
	outcome := h.Applier.Apply(c.Request.Context(), merchantID, call, result)
	c.JSON(http.StatusOK, gin.H{"analysis": result, "applied": outcome})
}

type analyzeTranscriptRequest struct {
	Transcript analysis.TranscriptInput `json:"transcript"`
	CallLogID  string                   `json:"call_log_id,omitempty"`
}

// AnalyzeTranscript analyzes an ad-hoc transcript. When call_log_id names a
// stored call, the result is additionally applied against that call's
// customer.
func (h Handlers) AnalyzeTranscript(c *gin.Context) {
	if h.Analyzer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analysis not configured"})
		return
	}
	merchantID, err := auth.MerchantID(c.Request.Context())
	if err != nil || merchantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "merchant_id required"})
		return
	}

	var req analyzeTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result := h.Analyzer.Analyze(c.Request.Context(), req.Transcript)

	if req.CallLogID != "" && h.Applier != nil && h.Calls != nil {
		call, err := h.Calls.GetByID(c.Request.Context(), merchantID, req.CallLogID)
		if err != nil {
			if errors.Is(err, calls.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
				return
			}
			logger.FromGin(c).Error("call lookup failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
			return
		}
		outcome := h.Applier.Apply(c.Request.Context(), merchantID, call, result)
		c.JSON(http.StatusOK, gin.H{"analysis": result, "applied": outcome})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": result})
}

// --- Reports ---

func (h Handlers) CallsReport(c *gin.Context) {
	h.report(c, func(merchantID string, rng reporting.TimeRange) (any, error) {
		return h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{MerchantID: merchantID, Range: rng})
	})
}

func (h Handlers) EngagementReport(c *gin.Context) {
	h.report(c, func(merchantID string, rng reporting.TimeRange) (any, error) {
		return h.Reporting.EngagementSummary(c.Request.Context(), reporting.EngagementSummaryRequest{MerchantID: merchantID, Range: rng})
	})
}

func (h Handlers) PipelineReport(c *gin.Context) {
	h.report(c, func(merchantID string, rng reporting.TimeRange) (any, error) {
		return h.Reporting.PipelineSummary(c.Request.Context(), reporting.PipelineSummaryRequest{MerchantID: merchantID, Range: rng})
	})
}

func (h Handlers) report(c *gin.Context, run func(merchantID string, rng reporting.TimeRange) (any, error)) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	merchantID, err := auth.MerchantID(c.Request.Context())
	if err != nil || merchantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "merchant_id required"})
		return
	}
	rng, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := run(merchantID, rng)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		logger.FromGin(c).Error("report failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseRange reads from/to query params (RFC 3339), defaulting to the last
// 30 days.
func parseRange(c *gin.Context) (reporting.TimeRange, error) {
	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -30), To: now}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return reporting.TimeRange{}, errors.New("invalid from timestamp")
		}
		rng.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return reporting.TimeRange{}, errors.New("invalid to timestamp")
		}
		rng.To = t
	}
	return rng, nil
}
