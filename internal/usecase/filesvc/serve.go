package filesvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/rangereq"
)

// Serve пишет в w заголовки и тело файла: целиком (200) или один диапазон (206).
//
// Ошибки до отправки заголовков возвращаются как есть и превращаются вызывающим кодом
// в 403/404/416/500. Обрыв во время копирования тела оборачивается в models.ErrStreamAborted.
func (s *Files) Serve(ctx context.Context, w http.ResponseWriter, req ServeRequest) error {
	p, err := s.Resolver.Join(req.SubDirectory, req.FileName)
	if err != nil {
		return err
	}

	f, err := os.Open(p.String())
	if err != nil {
		return s.statErr(p, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return s.statErr(p, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", models.ErrNotFound, s.Resolver.Rel(p))
	}

	media := describe(p, fi)
	plan, err := rangereq.NewPlan(req.Range, media.Size, media.Name)
	if err != nil {
		if errors.Is(err, models.ErrRangeUnsatisfiable) {
			rangereq.UnsatisfiableHeader(w.Header(), media.Size)
		}
		return err
	}
	if plan.Degraded {
		s.Logger.Warn(ctx, "malformed range header, serving full file",
			"path", s.Resolver.Rel(p), "range", req.Range)
	}

	plan.Header(w.Header())
	w.Header().Set("Last-Modified", media.ModTime.UTC().Format(http.TimeFormat))
	w.WriteHeader(plan.Status())

	if req.HeadOnly {
		return nil
	}

	n, err := rangereq.Copy(ctx, w, f, plan)
	if err != nil {
		return fmt.Errorf("%w: %s after %d of %d bytes: %v",
			models.ErrStreamAborted, s.Resolver.Rel(p), n, plan.ContentLength(), err)
	}

	s.Logger.Debug(ctx, "file served",
		"path", s.Resolver.Rel(p), "kind", plan.Kind.String(), "bytes", n)

	return nil
}
