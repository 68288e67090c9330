package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/linkvault/linkvault/pkg/expiry"
	"github.com/linkvault/linkvault/pkg/share"
	"github.com/linkvault/linkvault/pkg/storage/database/models"
	"github.com/rs/zerolog/log"
)

// Default upload cap, matching the 50MB limit of the web client.
const defaultMaxUploadBytes = 50 * 1024 * 1024

const maxMultipartMemory = 32 << 20

// Machine-readable reasons for gate rejections. Clients branch on
// these rather than on the human-readable message.
const (
	reasonPasswordRequired = "password_required"
	reasonInvalidPassword  = "invalid_password"
	reasonAlreadyConsumed  = "already_consumed"
	reasonViewLimitReached = "view_limit_reached"
)

func (a *LinkVaultAPI) maxUploadBytes() int64 {
	if a.config.MaxUploadBytes > 0 {
		return a.config.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (a *LinkVaultAPI) shareURL(shareID string) string {
	return strings.TrimSuffix(a.config.BaseURL, "/") + "/share/" + shareID
}

func (a *LinkVaultAPI) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		apiError(w, r, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	req := share.CreateRequest{
		OwnerID:     a.OwnerID(r),
		Text:        r.FormValue("text"),
		Password:    r.FormValue("password"),
		OneTimeView: r.FormValue("isOneTimeView") == "true",
	}

	// Loose string fields are parsed explicitly; a malformed value is
	// an error, never silently coerced. Zero is rejected here because
	// the engine reads it as "field absent".
	if v := r.FormValue("expiryMinutes"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "expiry minutes must be a valid number")
			return
		}
		if minutes == 0 {
			a.shareError(w, r, expiry.ErrInvalidExpiry)
			return
		}
		req.ExpiryMinutes = minutes
	}
	if v := r.FormValue("expiryDateTime"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "invalid expiry date format")
			return
		}
		req.ExpiryAt = at
	}
	if v := r.FormValue("maxViewCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "view limit must be a valid number")
			return
		}
		if n == 0 {
			a.shareError(w, r, share.ErrInvalidViewLimit)
			return
		}
		req.MaxViewCount = n
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			apiError(w, r, http.StatusBadRequest, "unable to read uploaded file")
			return
		}
		req.File = &share.FileUpload{
			Name:     header.Filename,
			Size:     header.Size,
			MimeType: header.Header.Get("Content-Type"),
			Content:  content,
		}
	}

	result, err := a.engine.Create(r.Context(), req)
	if err != nil {
		a.shareError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, render.M{
		"success":   true,
		"shareId":   result.ShareID,
		"shareUrl":  a.shareURL(result.ShareID),
		"expiresAt": result.ExpiresAt,
	})
}

func (a *LinkVaultAPI) View(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	var body struct {
		Password string `json:"password"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil && !errors.Is(err, io.EOF) {
		apiError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := a.engine.View(r.Context(), shareID, body.Password)
	if err != nil {
		a.shareError(w, r, err)
		return
	}

	if result.ContentType == models.ContentTypeText {
		render.JSON(w, r, render.M{
			"success":     true,
			"contentType": result.ContentType,
			"content":     result.Content,
			"viewCount":   result.ViewCount,
		})
		return
	}

	render.JSON(w, r, render.M{
		"success":      true,
		"contentType":  result.ContentType,
		"fileName":     result.FileName,
		"fileUrl":      result.FileURL,
		"fileSize":     result.FileSize,
		"fileMimeType": result.FileMimeType,
		"viewCount":    result.ViewCount,
	})
}

func (a *LinkVaultAPI) Info(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	info, err := a.engine.Info(r.Context(), shareID)
	if err != nil {
		a.shareError(w, r, err)
		return
	}

	render.JSON(w, r, struct {
		Success bool `json:"success"`
		models.ShareInfo
	}{true, info})
}

func (a *LinkVaultAPI) Delete(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	if err := a.engine.Delete(r.Context(), shareID, a.OwnerID(r)); err != nil {
		a.shareError(w, r, err)
		return
	}

	render.JSON(w, r, render.M{"success": true, "message": "Content deleted successfully"})
}

func (a *LinkVaultAPI) ListShares(w http.ResponseWriter, r *http.Request) {
	ownerID := a.OwnerID(r)
	if ownerID == "" {
		apiError(w, r, http.StatusUnauthorized, "Authentication required to view your shares")
		return
	}

	shares, err := a.engine.List(r.Context(), ownerID)
	if err != nil {
		a.shareError(w, r, err)
		return
	}

	render.JSON(w, r, render.M{
		"success": true,
		"shares":  shares,
		"count":   len(shares),
	})
}

func apiError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, render.M{"success": false, "error": message})
}

func gateError(w http.ResponseWriter, r *http.Request, reason string, message string) {
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, render.M{"success": false, "error": message, "reason": reason})
}

// shareError maps engine errors onto HTTP responses. Absent and
// expired shares produce identical responses so an expired link leaks
// nothing about whether it ever existed.
func (a *LinkVaultAPI) shareError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, share.ErrShareNotFound), errors.Is(err, share.ErrShareExpired):
		apiError(w, r, http.StatusNotFound, "Content not found or has expired")
	case errors.Is(err, share.ErrPasswordRequired):
		gateError(w, r, reasonPasswordRequired, err.Error())
	case errors.Is(err, share.ErrInvalidPassword):
		gateError(w, r, reasonInvalidPassword, err.Error())
	case errors.Is(err, share.ErrAlreadyConsumed):
		gateError(w, r, reasonAlreadyConsumed, err.Error())
	case errors.Is(err, share.ErrViewLimitReached):
		gateError(w, r, reasonViewLimitReached, err.Error())
	case errors.Is(err, share.ErrForbidden):
		apiError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, share.ErrPayloadConflict),
		errors.Is(err, share.ErrInvalidViewLimit),
		errors.Is(err, expiry.ErrInvalidExpiry):
		apiError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Unable to serve share request")
		apiError(w, r, http.StatusInternalServerError, "internal error")
	}
}
