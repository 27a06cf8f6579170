package resthttp

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sir_venger/media_lite/internal/logging"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную удаляет устаревшие архивы. Если уборка не настроена, берётся TTL в сутки.
func (s *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	ttl := s.Cfg.ArchiveTTL()
	if ttl <= 0 {
		ttl = manualGCTTL
	}

	dir := filepath.Join(s.Resolver.Root().String(), s.Cfg.ArchiveDir)
	removed, err := sweepOnce(dir, ttl)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.Logger.Error(r.Context(), "archive sweep failed", "err", err)
	}
	s.Logger.Info(r.Context(), "archive sweep", "removed", removed, "ttl", ttl)

	w.WriteHeader(http.StatusNoContent)
}

// StartJanitor стартует периодическую очистку каталога архивов.
func StartJanitor(dir string, ttl time.Duration, every time.Duration, logger logging.Logger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}
	if logger == nil {
		logger = logging.Discard()
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				removed, err := sweepOnce(dir, ttl)
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					logger.Error(context.Background(), "archive sweep failed", "err", err)
					continue
				}
				if removed > 0 {
					logger.Info(context.Background(), "archive sweep", "removed", removed)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// sweepOnce удаляет *.zip в dir, которые не менялись дольше ttl. Подкаталоги не трогает.
func sweepOnce(dir string, ttl time.Duration) (int, error) {
	now := time.Now()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			continue
		}

		if now.Sub(fi.ModTime()) < ttl {
			continue
		}

		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}
