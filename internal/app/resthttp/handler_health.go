package resthttp

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sir_venger/media_lite/pkg/httperrors"
	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

// health возвращает агрегированную статистику по каталогу загрузок.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	var (
		total    int64
		archives int
	)
	archiveDir := filepath.Join(s.Resolver.Root().String(), s.Cfg.ArchiveDir)

	// Проходим по всем файлам и суммируем их размер для простой capacity-метрики.
	err := filepath.WalkDir(s.Resolver.Root().String(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()

		if filepath.Dir(path) == archiveDir && strings.HasSuffix(d.Name(), ".zip") {
			archives++
		}

		return nil
	})

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mediaproto.Health{
		OK:         true,
		TotalBytes: total,
		Archives:   archives,
	})
}
