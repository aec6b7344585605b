package storage

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrTooLarge возвращается, если файл превышает лимит загрузки.
var ErrTooLarge = errors.New("storage: размер файла превышает лимит")

// Document - результат выдачи документа: поток с содержимым либо ссылка на скачивание.
type Document struct {
	Body io.ReadCloser
	URL  string
}

// DocumentStore хранит документы специалистов.
type DocumentStore interface {
	// Save сохраняет файл владельца и возвращает ключ для последующего доступа.
	Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	Fetch(ctx context.Context, key string) (*Document, error)
}
