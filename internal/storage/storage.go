package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrTooLarge возвращается, когда загружаемый файл превышает лимит.
var ErrTooLarge = errors.New("storage: file exceeds upload limit")

// Storage хранит картинки профиля и возвращает публичную ссылку на них.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == "/" {
		name = "picture"
	}
	return name
}

// readLimited читает не больше max байт и возвращает ErrTooLarge, если данных больше.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: max + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}
