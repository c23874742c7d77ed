package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"healthhive/internal/database"
)

type fakeStorage struct {
	uploaded map[string][]byte

	deleted []string

	presign map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded: map[string][]byte{},
		presign:  map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if v, ok := s.presign[objectKey]; ok {
		return v, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadMedia_StoresUnderCallerPrefix(t *testing.T) {
	storage := newFakeStorage()
	h := NewMediaHandler(storage, nil, "", 5*1024*1024)

	body, contentType := newMultipartUpload(t, "cover.png", []byte("\x89PNG\r\n\x1a\n"))
	req := httptest.NewRequest(http.MethodPost, "/v1/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	c, w := newTestContext(t, req, 7, database.RoleUser)
	h.Upload(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 1 {
		t.Fatalf("uploaded %d objects, want 1", len(storage.uploaded))
	}
	for key := range storage.uploaded {
		if !strings.HasPrefix(key, "media/7/") || !strings.HasSuffix(key, ".png") {
			t.Fatalf("object key = %q", key)
		}
	}
}

func TestUploadMedia_RejectsOversize(t *testing.T) {
	storage := newFakeStorage()
	h := NewMediaHandler(storage, nil, "", 4)

	body, contentType := newMultipartUpload(t, "big.png", []byte("more than four bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	c, w := newTestContext(t, req, 7, database.RoleUser)
	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("oversize file reached storage: %v", storage.uploaded)
	}
}

func TestViewMedia_ScopedToOwnPrefix(t *testing.T) {
	storage := newFakeStorage()
	h := NewMediaHandler(storage, nil, "", 0)

	view := func(key string, userID uint, role string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/media/view?key="+key, nil)
		c, w := newTestContext(t, req, userID, role)
		h.View(c)
		return w
	}

	if w := view("media/7/own.png", 7, database.RoleUser); w.Code != http.StatusOK {
		t.Fatalf("own object status = %d body=%s", w.Code, w.Body.String())
	}
	if w := view("media/8/other.png", 7, database.RoleUser); w.Code != http.StatusForbidden {
		t.Fatalf("foreign object status = %d, want 403", w.Code)
	}
	if w := view("media/8/other.png", 1, database.RoleAdmin); w.Code != http.StatusOK {
		t.Fatalf("admin view status = %d body=%s", w.Code, w.Body.String())
	}
}
