package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage хранит картинки в каталоге, который раздаётся как статика.
type LocalStorage struct {
	rootPath       string
	urlPrefix      string
	maxUploadBytes int64
}

// NewLocalStorage создаёт файловое хранилище в rootPath/urlPrefix.
// Ссылки на файлы имеют вид urlPrefix/<имя>.
func NewLocalStorage(rootPath, urlPrefix string, maxUploadMB int64) (*LocalStorage, error) {
	urlPrefix = "/" + strings.Trim(urlPrefix, "/")
	dir := filepath.Join(rootPath, filepath.FromSlash(urlPrefix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", dir, err)
	}

	return &LocalStorage{
		rootPath:       dir,
		urlPrefix:      urlPrefix,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Dir возвращает каталог с файлами, чтобы роутер мог раздавать его.
func (s *LocalStorage) Dir() string {
	return s.rootPath
}

// URLPrefix возвращает публичный префикс ссылок.
func (s *LocalStorage) URLPrefix() string {
	return s.urlPrefix
}

// Save сохраняет файл через временный файл и возвращает публичную ссылку.
func (s *LocalStorage) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fileName := sanitizeFilename(name)
	targetPath := filepath.Join(s.rootPath, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return path.Join(s.urlPrefix, fileName), nil
}

// Delete удаляет файл по ссылке. Ссылки вне хранилища игнорируются.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return nil
	}

	target := filepath.Join(s.rootPath, sanitizeFilename(strings.TrimPrefix(ref, s.urlPrefix+"/")))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}
