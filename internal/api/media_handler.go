package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MediaStorage is the slice of the storage client the API needs; tests swap
// in an in-memory fake.
type MediaStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// MediaHandler stores uploaded images and hands out presigned view links.
// Resource handlers only ever see the returned object key.
type MediaHandler struct {
	Storage   MediaStorage
	Logger    *slog.Logger
	ClamdAddr string
	MaxBytes  int64
}

// NewMediaHandler constructs the handler.
func NewMediaHandler(storageClient MediaStorage, logger *slog.Logger, clamdAddr string, maxBytes int64) *MediaHandler {
	return &MediaHandler{
		Storage:   storageClient,
		Logger:    logger,
		ClamdAddr: clamdAddr,
		MaxBytes:  maxBytes,
	}
}

// Upload accepts a multipart image, scans it when clamd is configured, and
// stores it under a caller-scoped key.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	if h.MaxBytes > 0 && file.Size > h.MaxBytes {
		BadRequest(c, "file too large")
		return
	}

	if h.ClamdAddr != "" {
		clean, err := h.scan(file)
		if err != nil {
			h.Logger.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if !clean {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	ext := strings.ToLower(path.Ext(file.Filename))
	if ext == "" {
		ext = ".bin"
	}
	objectKey := fmt.Sprintf("media/%d/%s%s", userID, uuid.NewString(), ext)

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := h.Storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		h.Logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	OK(c, http.StatusCreated, gin.H{"objectKey": objectKey})
}

// View returns a short-lived presigned URL for an object. Non-admin callers
// may only address their own uploads.
func (h *MediaHandler) View(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}

	ownPrefix := fmt.Sprintf("media/%d/", userID)
	if !strings.HasPrefix(objectKey, ownPrefix) && !callerIsAdmin(c) {
		Forbidden(c, "access denied")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.Logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	OK(c, http.StatusOK, gin.H{"url": signedURL})
}

func (h *MediaHandler) scan(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer reader.Close()

	clamdClient := clamd.NewClamd(h.ClamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	if err != nil {
		return false, fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return false, nil
		}
	}
	return true, nil
}
