package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-page-translator/internal/config"
	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/service"
	"go-page-translator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MetricsProvider exposes aggregated pipeline metrics
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.TranslationService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/translate", translatePage(svc, cfg))
	r.POST("/render", renderOverlay(svc))
	r.GET("/preferences", getPreferences(svc))
	r.PUT("/preferences", updatePreferences(svc, cfg))
	if metrics != nil {
		r.GET("/metrics", getMetrics(metrics))
	}

	return r
}

func translatePage(svc service.TranslationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.TranslateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":       req.URL,
			"auto_crop": req.AutoCrop,
			"preview":   req.Preview,
		}).Debug("Translating page")

		resp, err := svc.Translate(ctx, req)
		if err != nil {
			if !isAppError(err) && errors.Is(err, context.DeadlineExceeded) {
				err = apperrors.NewTimeoutError("request timed out", err)
			}
			respondError(c, apperrors.GetStatusCode(err), "translation failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"run_id":             resp.RunID,
			"lines":              len(resp.Lines),
			"dropped_blocks":     len(resp.Failures),
			"cropped":            resp.Cropped,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Page translated")

		c.JSON(http.StatusOK, resp)
	}
}

func renderOverlay(svc service.TranslationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RenderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.Render(req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "render failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func getPreferences(svc service.TranslationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Preferences())
	}
}

func updatePreferences(svc service.TranslationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// a language change may have to wait for the in-flight run
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var update models.PreferencesUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		prefs, err := svc.UpdatePreferences(ctx, update)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to update preferences", err)
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}

func getMetrics(m MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if isAppError(err) {
		return apperrors.GetStatusCode(err)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func isAppError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr)
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
