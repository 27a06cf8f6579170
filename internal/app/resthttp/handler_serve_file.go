package resthttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/usecase/filesvc"
	"github.com/sir_venger/media_lite/pkg/httperrors"
	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

// serveFile отдаёт файл целиком или, для аудио с заголовком Range, один диапазон.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	sub, err := pathParam(r, "subDirectory")
	if err != nil {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}
	name, err := pathParam(r, "fileName")
	if err != nil {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}

	req := filesvc.ServeRequest{
		SubDirectory: sub,
		FileName:     name,
		Range:        r.Header.Get(mediaproto.HeaderRange),
		HeadOnly:     r.Method == http.MethodHead,
	}

	err = s.FilesService.Serve(r.Context(), w, req)
	if err == nil {
		return
	}

	// Заголовки уже ушли клиенту, остаётся только залогировать обрыв.
	if errors.Is(err, models.ErrStreamAborted) {
		s.Logger.Warn(r.Context(), "stream aborted", "err", err)
		return
	}

	s.logFailure(r, err)
	httperrors.Write(w, err)
}

// pathParam возвращает раскодированный параметр маршрута. chi матчит по URL.RawPath,
// когда тот задан (в пути есть %2F или нестандартное экранирование), и тогда параметр
// приходит закодированным. Иначе он уже взят из раскодированного URL.Path.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}

	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%w: malformed escape in %s", models.ErrBadRequest, key)
	}
	return decoded, nil
}

// logFailure логирует ошибку с уровнем по её виду: клиентские пишутся в Warn, остальные в Error.
func (s *Server) logFailure(r *http.Request, err error) {
	if httperrors.Status(err) >= http.StatusInternalServerError {
		s.Logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		return
	}
	s.Logger.Warn(r.Context(), "request rejected", "path", r.URL.Path, "err", err)
}
