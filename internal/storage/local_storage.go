package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rental-marketplace-backend/internal/logger"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid storage key")

// LocalFileStore keeps product images on the local filesystem and issues
// URLs that point back at the API's upload and download routes
type LocalFileStore struct {
	baseURL string
	rootDir string
}

func NewLocalFileStore(baseURL, uploadDir string) (*LocalFileStore, error) {
	rootDir := filepath.Join(uploadDir, "products")
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalFileStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		rootDir: rootDir,
	}, nil
}

// ProductImageKey builds the storage key for a new image of productID
func ProductImageKey(productID int32, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d/%s%s", productID, uuid.NewString(), ext)
}

func (s *LocalFileStore) PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/v1/upload/%s?key=%s", s.baseURL, uuid.NewString(), url.QueryEscape(key)), nil
}

func (s *LocalFileStore) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/v1/download/%s?key=%s", s.baseURL, encodeKey(key), url.QueryEscape(key)), nil
}

func (s *LocalFileStore) Stat(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalFileStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalFileStore) Save(key string, r io.Reader) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, r)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Debug("Stored upload", "key", key, "bytes", n)
	return nil
}

func (s *LocalFileStore) Open(key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// path resolves key under the root directory and rejects traversal
func (s *LocalFileStore) path(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	fullPath := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if !strings.HasPrefix(fullPath, s.rootDir+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return fullPath, nil
}

// encodeKey creates a URL-safe hash of the key
func encodeKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}
