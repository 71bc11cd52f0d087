package uploads

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"stablebricks-backend/internal/infrastructure/storage"

	"github.com/oklog/ulid/v2"
)

// MaxFileSize stays under Fiber's default request body limit.
const MaxFileSize = 3 << 20

const (
	signedUploadTTL = time.Hour
	keyPrefix       = "uploads/"
	PublicPath      = "/api/v1/uploads/"
)

var (
	ErrUnknownFolder            = errors.New("Unknown upload folder")
	ErrFileNameRequired         = errors.New("file_name is required")
	ErrFileRequired             = errors.New("file is required")
	ErrUnsupportedType          = errors.New("File type is not allowed for this folder")
	ErrFileTooLarge             = errors.New("File exceeds the 3MB limit")
	ErrSignedUploadsUnavailable = errors.New("Direct uploads are not available; send the file instead")
	ErrFileNotFound             = errors.New("File not found")
)

var images = []string{"image/jpeg", "image/png", "image/webp"}

// folders lists the content types each upload folder accepts.
var folders = map[string][]string{
	"projects": images,
	"listings": images,
	"events":   images,
	"land":     append([]string{"application/pdf"}, images...),
}

var extTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// Service stores images and documents referenced by projects, listings, events and land submissions.
type Service struct {
	Store storage.Store
}

type Result struct {
	UploadURL string `json:"uploadUrl,omitempty"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

func allowed(folder, contentType string) error {
	types, ok := folders[folder]
	if !ok {
		return ErrUnknownFolder
	}
	for _, t := range types {
		if t == contentType {
			return nil
		}
	}
	return ErrUnsupportedType
}

// cleanName keeps the base name with anything outside [A-Za-z0-9._-] replaced by '-'.
func cleanName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '-'
	}, base)
}

func newKey(folder, fileName string) (name, key string) {
	base := strings.TrimLeft(cleanName(strings.ToLower(fileName)), ".")
	if base == "" {
		base = "file"
	}
	name = ulid.Make().String() + "-" + base
	return name, keyPrefix + folder + "/" + name
}

func result(folder, name string) *Result {
	return &Result{PublicURL: PublicPath + folder + "/" + name, Path: keyPrefix + folder + "/" + name}
}

// SignedUpload returns a time-limited URL the client PUTs the file to. The
// content type is taken from the file extension.
func (s *Service) SignedUpload(ctx context.Context, folder, fileName string) (*Result, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrFileNameRequired
	}
	contentType := extTypes[strings.ToLower(filepath.Ext(fileName))]
	if err := allowed(folder, contentType); err != nil {
		return nil, err
	}
	signer, ok := s.Store.(storage.UploadSigner)
	if !ok {
		return nil, ErrSignedUploadsUnavailable
	}
	name, key := newKey(folder, fileName)
	url, err := signer.SignedUploadURL(ctx, key, contentType, signedUploadTTL)
	if err != nil {
		return nil, err
	}
	res := result(folder, name)
	res.UploadURL = url
	return res, nil
}

// Upload stores body after checking its sniffed content type against the folder.
func (s *Service) Upload(ctx context.Context, folder, fileName string, body []byte) (*Result, error) {
	if len(body) == 0 {
		return nil, ErrFileRequired
	}
	if len(body) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	contentType := http.DetectContentType(body)
	if err := allowed(folder, contentType); err != nil {
		return nil, err
	}
	name, key := newKey(folder, fileName)
	if err := s.Store.Put(ctx, key, body, contentType); err != nil {
		return nil, err
	}
	return result(folder, name), nil
}

// Open returns a stored upload and its content type.
func (s *Service) Open(ctx context.Context, folder, name string) ([]byte, string, error) {
	if _, ok := folders[folder]; !ok {
		return nil, "", ErrFileNotFound
	}
	if name == "" || strings.HasPrefix(name, ".") || cleanName(name) != name {
		return nil, "", ErrFileNotFound
	}
	body, err := s.Store.Get(ctx, keyPrefix+folder+"/"+name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrFileNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return body, http.DetectContentType(body), nil
}
