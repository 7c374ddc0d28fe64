package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const maxUploadSize = 32 << 20

type UploadResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileUrl  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// UploadHandler stores a multipart file under uploadDir with a unique
// name and returns the public URL the chat client puts into a file
// envelope. The original filename only contributes its extension; when it
// has none the content is sniffed instead.
func UploadHandler(uploadDir, accessPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			log.Printf("[UPLOAD] Bad multipart request: %v", err)
			writeResult(w, http.StatusBadRequest, UploadResult{Message: "invalid upload request"})
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeResult(w, http.StatusBadRequest, UploadResult{Message: "file field is missing"})
			return
		}
		defer file.Close()

		if header.Size == 0 {
			writeResult(w, http.StatusBadRequest, UploadResult{Message: "file is empty"})
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			log.Printf("[UPLOAD] Cannot create upload dir %s: %v", uploadDir, err)
			writeResult(w, http.StatusInternalServerError, UploadResult{Message: "upload failed"})
			return
		}

		ext := filepath.Ext(header.Filename)
		if ext == "" {
			if mt, err := mimetype.DetectReader(file); err == nil {
				ext = mt.Extension()
			}
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				log.Printf("[UPLOAD] Rewind failed: %v", err)
				writeResult(w, http.StatusInternalServerError, UploadResult{Message: "upload failed"})
				return
			}
		}

		uniqueName := uuid.NewString() + ext
		dst, err := os.Create(filepath.Join(uploadDir, uniqueName))
		if err != nil {
			log.Printf("[UPLOAD] Cannot create file: %v", err)
			writeResult(w, http.StatusInternalServerError, UploadResult{Message: "upload failed"})
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			log.Printf("[UPLOAD] Write failed: %v", err)
			writeResult(w, http.StatusInternalServerError, UploadResult{Message: "upload failed"})
			return
		}

		log.Printf("[UPLOAD] Stored %s as %s (%d bytes)", header.Filename, uniqueName, header.Size)
		writeResult(w, http.StatusOK, UploadResult{
			Success:  true,
			Message:  "upload successful",
			FileUrl:  accessPath + uniqueName,
			FileName: header.Filename,
			FileSize: header.Size,
		})
	}
}

func writeResult(w http.ResponseWriter, status int, result UploadResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}
