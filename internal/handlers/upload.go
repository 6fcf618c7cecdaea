package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adi-253/Talkie/relay/internal/models"
	"github.com/adi-253/Talkie/relay/internal/services"
)

// contentTypeByExt maps file extensions to MIME types.
var contentTypeByExt = map[string]string{
	".txt":  "text/plain",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const maxExtLength = 10

// UploadHandler stores uploaded files on disk under collision-free names.
type UploadHandler struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewUploadHandler creates an UploadHandler writing into dir. Stored files are
// served under urlPrefix (e.g. "/uploads/").
func NewUploadHandler(dir, urlPrefix string, maxBytes int64) *UploadHandler {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &UploadHandler{dir: dir, urlPrefix: urlPrefix, maxBytes: maxBytes}
}

// Upload handles POST /api/upload
// Expects a multipart form with a "file" field and returns the URL to share in a file event.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	original := filepath.Base(filepath.Clean(header.Filename))
	if original == "." || original == string(filepath.Separator) {
		original = ""
	}
	name := storedName(original, time.Now())

	if err := h.save(file, name); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		log.Printf("[Upload] Failed to store %q: %v", original, err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	if original == "" {
		original = name
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = detectContentType(name)
	}

	log.Printf("[Upload] Stored %q as %s", original, name)
	writeJSON(w, http.StatusCreated, models.UploadResponse{
		URL:      h.urlPrefix + name,
		Filename: original,
		Mime:     mime,
	})
}

// save writes to a partial file first so readers never see a truncated upload.
func (h *UploadHandler) save(src io.Reader, name string) error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	final := filepath.Join(h.dir, name)
	partial := final + services.PartialUploadSuffix

	dst, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(partial)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(partial)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to finalize file: %w", err)
	}
	return nil
}

// storedName builds "<unix-millis>-<random><ext>". Only the extension of the
// client-supplied name survives, and only if it is short and alphanumeric.
func storedName(original string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, safeExt(original))
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtLength {
		return ""
	}
	for _, c := range ext[1:] {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return ""
		}
	}
	return ext
}

// detectContentType determines the content type based on file extension.
func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if contentType, ok := contentTypeByExt[ext]; ok {
		return contentType
	}
	return "application/octet-stream"
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
