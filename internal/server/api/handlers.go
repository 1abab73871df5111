package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"pdfpress/internal/core"
	"pdfpress/internal/server/auth"
	"pdfpress/internal/server/service"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// multipartOverhead is the slack allowed on top of the file limit for
// boundaries and the preset fields.
const multipartOverhead = 1 << 20

// statusClientClosedRequest is reported when the client disconnects mid-run.
const statusClientClosedRequest = 499

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains the HTTP handlers for the compressor.
type Handler struct {
	svc       *service.CompressService
	gate      *auth.Gate
	db        HealthChecker
	maxUpload int64
}

// NewHandler creates a new handler. db may be nil when statistics are disabled.
func NewHandler(svc *service.CompressService, gate *auth.Gate, db HealthChecker, maxUpload int64) *Handler {
	return &Handler{svc: svc, gate: gate, db: db, maxUpload: maxUpload}
}

// HandleIndex handles GET /.
// Serves the upload form to signed-in users and the login form to everyone else.
func (h *Handler) HandleIndex(c echo.Context) error {
	if !h.authenticated(c) {
		return c.Render(http.StatusOK, "login", pageData{})
	}
	return c.Render(http.StatusOK, "upload", pageData{
		MaxSize: humanize.IBytes(uint64(h.maxUpload)),
	})
}

// HandleLogin handles POST /login.
// Accepts a "password" form field and sets the session cookie on success.
func (h *Handler) HandleLogin(c echo.Context) error {
	cookie, err := h.gate.CheckPassword(c.FormValue("password"))
	if err != nil {
		if wantsJSON(c) {
			return mapServiceError(c, err)
		}
		return c.Render(http.StatusUnauthorized, "login", pageData{Error: "Invalid password"})
	}

	c.SetCookie(cookie)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"status": "authenticated"})
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleLogout handles POST /logout.
func (h *Handler) HandleLogout(c echo.Context) error {
	c.SetCookie(h.gate.ClearCookie())
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleCompress handles POST /compress.
// Accepts a multipart form with a "file" field and optional "resolution" and
// "quality" fields, and responds with the compressed PDF as an attachment.
func (h *Handler) HandleCompress(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUpload+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return mapFormError(c, err)
	}
	if fileHeader.Filename == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file selected"})
	}

	form := CompressForm{
		Resolution: c.FormValue("resolution"),
		Quality:    c.FormValue("quality"),
	}
	if err := c.Validate(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "invalid preset",
			"reason": "bad_preset",
			"fields": validationErrorsToMap(err),
		})
	}
	preset, err := core.ParsePreset(form.Resolution, form.Quality)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "reason": "bad_preset"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	data, err := h.svc.ReadUpload(src, fileHeader.Size)
	if err != nil {
		return mapServiceError(c, err)
	}

	upload, err := h.svc.Validate(fileHeader.Filename, data)
	if err != nil {
		return mapServiceError(c, err)
	}

	result, err := h.svc.Compress(req.Context(), upload, preset)
	if err != nil {
		return mapServiceError(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{
		"filename": result.DownloadName,
	}))
	header.Set("X-Original-Size", strconv.FormatInt(result.OriginalSize, 10))
	header.Set("X-Compressed-Size", strconv.FormatInt(result.CompressedSize, 10))
	header.Set("Access-Control-Expose-Headers", "X-Original-Size, X-Compressed-Size, Content-Disposition")

	return c.Blob(http.StatusOK, "application/pdf", result.Data)
}

// HandleHealth handles GET /health.
// Always 200 so orchestrators can check liveness; the stats database is
// reported separately when configured.
func (h *Handler) HandleHealth(c echo.Context) error {
	body := echo.Map{"status": "healthy"}

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request().Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = fmt.Sprintf("error: %v", err)
		} else {
			body["database"] = "connected"
		}
	}

	return c.JSON(http.StatusOK, body)
}

// HandleStats handles GET /api/stats.
// Returns aggregate compression statistics.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	saved := stats.BytesSaved()
	if saved < 0 {
		saved = 0
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_jobs":        stats.TotalJobs,
		"succeeded_jobs":    stats.SucceededJobs,
		"failed_jobs":       stats.FailedJobs,
		"bytes_in":          stats.BytesIn,
		"bytes_out":         stats.BytesOut,
		"bytes_saved":       saved,
		"bytes_saved_human": humanize.Bytes(uint64(saved)),
		"avg_duration_ms":   stats.AvgDurationMS,
	})
}

func (h *Handler) authenticated(c echo.Context) bool {
	cookie, err := c.Cookie(auth.CookieName)
	if err != nil {
		return false
	}
	return h.gate.IsAuthenticated(cookie.Value)
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// mapFormError translates multipart parsing failures.
func mapFormError(c echo.Context, err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), strings.Contains(strings.ToLower(err.Error()), "too large"):
		return mapServiceError(c, &core.ValidationError{
			Kind:   core.TooLarge,
			Reason: "file exceeds the maximum allowed size",
		})
	case errors.Is(err, http.ErrMissingFile):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid multipart form",
		})
	}
}

// mapServiceError translates service-layer errors into appropriate HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	var verr *core.ValidationError
	var cerr *core.CompressionError

	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  verr.Reason,
			"reason": string(verr.Kind),
		})
	case errors.As(err, &cerr):
		if cerr.Kind == core.Canceled {
			return c.JSON(statusClientClosedRequest, echo.Map{
				"error":  "request canceled",
				"reason": string(cerr.Kind),
			})
		}
		sentry.CaptureException(err)
		if cerr.Kind == core.Timeout {
			return c.JSON(http.StatusGatewayTimeout, echo.Map{
				"error":  "compression timed out",
				"reason": string(cerr.Kind),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":  "compression failed",
			"reason": string(cerr.Kind),
		})
	case errors.Is(err, auth.ErrInvalidPassword):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrStatsDisabled):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "statistics disabled"})
	default:
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
