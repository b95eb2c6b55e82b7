package storage

import (
	"context"
	"io"
)

// UploadResult описывает объект, записанный в хранилище.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader пишет объекты в хранилище. Архив партий только добавляет
// объекты и никогда их не удаляет.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// GetPublicURL возвращает публичный адрес объекта или "", если он не настроен.
	GetPublicURL(key string) string
}
