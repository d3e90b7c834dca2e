package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ripplechat/ripple/internal/middleware"
	"github.com/ripplechat/ripple/internal/storage"
)

// UploadHandler accepts multipart file uploads and serves them back.
// Stored paths are server-generated, so clients can never choose where a
// file lands.
type UploadHandler struct {
	store   storage.Store
	maxSize int64
}

// NewUploadHandler creates a new UploadHandler with the given size cap in bytes.
func NewUploadHandler(store storage.Store, maxSize int64) *UploadHandler {
	return &UploadHandler{
		store:   store,
		maxSize: maxSize,
	}
}

// Upload stores a multipart file and returns the URL to reference it from
// a file message.
func (h *UploadHandler) Upload(c echo.Context) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "missing file field"})
	}
	if fileHeader.Size > h.maxSize {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    "too_large",
			Message: fmt.Sprintf("file exceeds the %d byte limit", h.maxSize),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "unreadable upload"})
	}
	defer src.Close()

	name := sanitizeFilename(fileHeader.Filename)
	storedPath := path.Join(uuid.NewString(), name)

	written, err := h.store.Save(c.Request().Context(), storedPath, src)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to store upload", "name", name, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "file could not be stored"})
	}

	return c.JSON(http.StatusCreated, UploadResponse{
		FileURL:  "/files/" + storedPath,
		FileName: name,
		FileSize: written,
	})
}

// Download streams a previously stored file.
func (h *UploadHandler) Download(c echo.Context) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "not signed in"})
	}

	storedPath := path.Clean(strings.TrimPrefix(c.Param("*"), "/"))
	if storedPath == "." || strings.HasPrefix(storedPath, "..") {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "bad_request", Message: "invalid file path"})
	}

	f, err := h.store.Open(c.Request().Context(), storedPath)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "file not found"})
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(storedPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, f)
}

// sanitizeFilename strips directory components and characters that do not
// belong in a stored name.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
