package utils

import (
	"crypto/rand"
	"fmt"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"FaceRegistry/pkg/response"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

const DefaultMaxFileSize int64 = 5 * 1024 * 1024

var (
	ErrNoFile               = response.NewError(http.StatusBadRequest, "no file uploaded")
	ErrUnsupportedMediaType = response.NewError(http.StatusUnsupportedMediaType, "only JPEG, PNG and WebP images are allowed")
	ErrFileTooLarge         = response.NewError(http.StatusRequestEntityTooLarge, "file too large")
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) (string, error)
	StoredImageName(t time.Time, ext string, names ...string) string
}

type utils struct {
	maxFileSize int64

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func New(maxFileSize int64) IUtils {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &utils{
		maxFileSize: maxFileSize,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), u.entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ValidateImageFile enforces the upload policy on the sniffed content, not the
// client supplied Content-Type, and returns the canonical extension.
func (u *utils) ValidateImageFile(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return "", response.WithDetails(ErrFileTooLarge,
			fmt.Sprintf("maximum size is %d bytes, got %d", u.maxFileSize, file.Size))
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}

	if !mimetype.EqualsAny(mime.String(), allowedImageTypes...) {
		return "", response.WithDetails(ErrUnsupportedMediaType, "detected "+mime.String())
	}

	return mime.Extension(), nil
}

// StoredImageName builds "<names joined by _>_<unix millis><ext>", lower-cased
// with anything outside [a-z0-9_] collapsed to "_".
func (u *utils) StoredImageName(t time.Time, ext string, names ...string) string {
	parts := make([]string, 0, len(names)+1)
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		n = strings.Trim(unsafeNameChars.ReplaceAllString(n, "_"), "_")
		if n != "" {
			parts = append(parts, n)
		}
	}
	parts = append(parts, fmt.Sprintf("%d", t.UnixMilli()))
	return strings.Join(parts, "_") + strings.ToLower(ext)
}
