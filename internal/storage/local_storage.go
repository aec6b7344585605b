package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage хранит документы в каталоге на диске.
type LocalStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewLocalStorage создаёт файловое хранилище.
func NewLocalStorage(rootPath string, maxUploadMB int64) (*LocalStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &LocalStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save сохраняет файл во временный, затем атомарно переименовывает.
func (s *LocalStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := objectName(ownerID, originalName)

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", ErrTooLarge
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.ToSlash(filepath.Join(ownerID.String(), fileName)), nil
}

// Delete удаляет файл. Отсутствующий файл ошибкой не считается.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// Fetch открывает файл для потоковой выдачи.
func (s *LocalStorage) Fetch(ctx context.Context, key string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось открыть файл: %w", err)
	}
	return &Document{Body: f}, nil
}

// resolve не даёт ключу выйти за пределы корневого каталога.
func (s *LocalStorage) resolve(key string) (string, error) {
	target := filepath.Join(s.rootPath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.rootPath, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("storage: некорректный ключ %q", key)
	}
	return target, nil
}

func objectName(ownerID uuid.UUID, originalName string) string {
	safeName := sanitizeFilename(originalName)
	return fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), strings.ToLower(filepath.Ext(safeName)))
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" || name == "." {
		name = "document"
	}
	return name
}
