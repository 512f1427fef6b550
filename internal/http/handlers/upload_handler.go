// Upload HTTP handlers.
//
// This file exposes the multipart upload endpoints for pitch media:
//   - POST /uploads/pitch-video  (private storage, signed URL)
//   - POST /uploads/pitch-deck   (public storage, public URL)
//
// Content type and size are validated from the multipart part headers before
// the file body is read or any storage call is made: an unlisted type yields
// 415 and an oversized file yields 413, in that order.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	maxVideoBytes = 150 << 20
	maxDeckBytes  = 20 << 20
)

var allowedVideoTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/quicktime": {},
	"video/webm":      {},
	"video/x-msvideo": {},
}

var allowedDeckTypes = map[string]struct{}{
	"application/pdf":                {},
	"application/vnd.ms-powerpoint":  {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/keynote": {},
}

// UploadResponse returns the URL under which the uploaded object is served.
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadPitchVideo godoc
// @ID          uploadPitchVideo
// @Summary     Upload a pitch video
// @Description Stores a pitch video in private storage and returns a long-lived signed URL.
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       file           formData  file  true  "Video file (mp4, quicktime, webm, avi; max 150 MiB)"
//
// @Success     200  {object} handlers.UploadResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     413  {object} handlers.ErrorResponse "Payload too large"
// @Failure     415  {object} handlers.ErrorResponse "Unsupported media type"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /uploads/pitch-video [post]
func (h *Handlers) UploadPitchVideo(c *gin.Context) {
	h.upload(c, allowedVideoTypes, maxVideoBytes, h.store.UploadVideo)
}

// UploadPitchDeck godoc
// @ID          uploadPitchDeck
// @Summary     Upload a pitch deck
// @Description Stores a pitch deck in public storage and returns its public URL.
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       file           formData  file  true  "Deck file (pdf, ppt, pptx, keynote; max 20 MiB)"
//
// @Success     200  {object} handlers.UploadResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     413  {object} handlers.ErrorResponse "Payload too large"
// @Failure     415  {object} handlers.ErrorResponse "Unsupported media type"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /uploads/pitch-deck [post]
func (h *Handlers) UploadPitchDeck(c *gin.Context) {
	h.upload(c, allowedDeckTypes, maxDeckBytes, h.store.UploadDeck)
}

// upload validates and stores one multipart file. Type and size checks use the
// part headers so rejected uploads never touch storage.
func (h *Handlers) upload(c *gin.Context, allowed map[string]struct{}, maxBytes int64, put func(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error)) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		// Bodies over the transport cap abort multipart parsing; report them
		// as too large, not as a malformed request.
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' is required")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if _, listed := allowed[contentType]; !listed {
		fail(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, "unsupported content type: "+contentType)
		return
	}
	if fh.Size > maxBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file exceeds size limit")
		return
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}

	url, err := put(c.Request.Context(), sub, fh.Filename, contentType, data)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, UploadResponse{URL: url})
}
