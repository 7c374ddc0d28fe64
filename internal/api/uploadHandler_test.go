package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestUploadStoresFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	handler := UploadHandler(dir, "/files/")

	body, contentType := multipartBody(t, "file", "notes.txt", "hello upload")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result UploadResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "notes.txt", result.FileName)
	assert.Equal(t, int64(len("hello upload")), result.FileSize)
	assert.True(t, strings.HasPrefix(result.FileUrl, "/files/"))
	assert.True(t, strings.HasSuffix(result.FileUrl, ".txt"), "extension preserved")

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(result.FileUrl, "/files/")))
	require.NoError(t, err)
	assert.Equal(t, "hello upload", string(stored))
}

func TestUploadSniffsExtensionWhenMissing(t *testing.T) {
	dir := t.TempDir()
	handler := UploadHandler(dir, "/files/")

	body, contentType := multipartBody(t, "file", "payload", `{"some":"json"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result UploadResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(result.FileUrl, "/files/")))
	require.NoError(t, err)
	assert.Equal(t, `{"some":"json"}`, string(stored), "sniffing must not consume the content")
}

func TestUploadRejectsMissingFileField(t *testing.T) {
	dir := t.TempDir()
	handler := UploadHandler(dir, "/files/")

	body, contentType := multipartBody(t, "wrong-field", "notes.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsWrongMethod(t *testing.T) {
	handler := UploadHandler(t.TempDir(), "/files/")

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
