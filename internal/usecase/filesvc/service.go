// Package filesvc отдаёт файлы из каталога загрузок с поддержкой Range для аудио.
package filesvc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/sir_venger/media_lite/internal/logging"
	"github.com/sir_venger/media_lite/internal/mediatype"
	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/pathguard"
)

type (
	// Service объединяет операции по выдаче файлов.
	Service interface {
		Stat(ctx context.Context, subDirectory, fileName string) (models.MediaFile, error)
		Serve(ctx context.Context, w http.ResponseWriter, req ServeRequest) error
	}

	// ServeRequest — входные данные запроса на выдачу файла.
	ServeRequest struct {
		SubDirectory string
		FileName     string
		// Range — сырое значение заголовка, пустая строка означает его отсутствие.
		Range    string
		HeadOnly bool
	}
)

type Deps struct {
	Resolver *pathguard.Resolver
	Logger   logging.Logger
}

type Files struct {
	Deps
}

// New конструирует сервис выдачи с заданными зависимостями.
func New(deps Deps) *Files {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Files{Deps: deps}
}

var _ Service = (*Files)(nil)

// Stat возвращает метаданные файла без чтения содержимого.
func (s *Files) Stat(_ context.Context, subDirectory, fileName string) (models.MediaFile, error) {
	p, err := s.Resolver.Join(subDirectory, fileName)
	if err != nil {
		return models.MediaFile{}, err
	}

	fi, err := os.Stat(p.String())
	if err != nil {
		return models.MediaFile{}, s.statErr(p, err)
	}
	if !fi.Mode().IsRegular() {
		return models.MediaFile{}, fmt.Errorf("%w: %s", models.ErrNotFound, s.Resolver.Rel(p))
	}

	return describe(p, fi), nil
}

func (s *Files) statErr(p pathguard.ResolvedPath, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, s.Resolver.Rel(p))
	}
	return fmt.Errorf("stat %s: %w", s.Resolver.Rel(p), err)
}

func describe(p pathguard.ResolvedPath, fi fs.FileInfo) models.MediaFile {
	contentType, audio := mediatype.Classify(p.Base())
	return models.MediaFile{
		Name:            p.Base(),
		Size:            fi.Size(),
		ModTime:         fi.ModTime(),
		ContentType:     contentType,
		StreamableAudio: audio,
	}
}
