// Package storage persists generated media to the configured save path and
// exposes the public URL the serving layer (nginx) maps onto it.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// MediaStore writes provider media to durable storage.
type MediaStore interface {
	// Save writes the media bytes under a name derived from the reference
	// and returns the public URL of the stored file.
	Save(reference string, contentType string, data []byte) (string, error)
}

type fileMediaStore struct {
	savePath string
	baseURL  string
	logger   *zap.Logger
}

// NewFileMediaStore creates a MediaStore over a mounted volume.
func NewFileMediaStore(savePath, publicBaseURL string, logger *zap.Logger) (MediaStore, error) {
	if savePath == "" {
		return nil, errors.New("media save path is not configured")
	}
	if publicBaseURL == "" {
		return nil, errors.New("media public base URL is not configured")
	}
	return &fileMediaStore{
		savePath: savePath,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		logger:   logger.Named("MediaStore"),
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	default:
		return ".bin"
	}
}

func (s *fileMediaStore) Save(reference string, contentType string, data []byte) (string, error) {
	if reference == "" {
		return "", errors.New("media reference is required but empty")
	}
	if len(data) == 0 {
		return "", errors.New("media data is empty")
	}

	fileName := reference + extensionFor(contentType)
	filePath := filepath.Join(s.savePath, fileName)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		s.logger.Error("Failed to save media file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("failed to save media file: %w", err)
	}

	url := s.baseURL + "/" + fileName
	s.logger.Info("Media saved", zap.String("path", filePath), zap.String("url", url), zap.Int("size_bytes", len(data)))
	return url, nil
}
