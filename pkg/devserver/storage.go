package devserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStorage keeps uploaded attachments under a base directory
type FileStorage struct {
	baseDir string
	logger  *zap.Logger
	newName func() string
}

// NewFileStorage creates a storage rooted at baseDir
func NewFileStorage(baseDir string, logger *zap.Logger) *FileStorage {
	return &FileStorage{
		baseDir: baseDir,
		logger:  logger,
		newName: uuid.NewString,
	}
}

// Save writes content under a generated name that keeps the original extension
// and returns the stored name
func (s *FileStorage) Save(originalName string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := s.newName() + ext
	fullPath := filepath.Join(s.baseDir, name)

	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write attachment", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	s.logger.Debug("Attachment saved",
		zap.String("original_name", originalName),
		zap.String("stored_name", name),
		zap.Int("size", len(content)))

	return name, nil
}

// Remove deletes stored attachments, ignoring ones already gone
func (s *FileStorage) Remove(names ...string) {
	for _, name := range names {
		fullPath := filepath.Join(s.baseDir, name)
		if err := s.ValidatePath(fullPath); err != nil {
			continue
		}
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove attachment", zap.String("path", fullPath), zap.Error(err))
		}
	}
}

// ValidatePath rejects paths that escape the base directory
func (s *FileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes storage directory: %s", fullPath)
	}
	return nil
}
