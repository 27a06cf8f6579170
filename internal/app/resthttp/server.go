// Package resthttp реализует публичный REST API медиасервиса:
//   - GET/HEAD /api/files/{subDirectory}/{fileName} — отдаёт файл, для аудио поддерживает Range.
//   - POST /api/files/compress — собирает несколько файлов в один ZIP.
//   - POST /api/files/compress/single — сжимает один файл.
//   - POST /admin/gc — ручная уборка устаревших архивов.
//   - GET /health — суммарный размер каталога загрузок.
package resthttp

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sir_venger/media_lite/internal/config"
	"github.com/sir_venger/media_lite/internal/logging"
	"github.com/sir_venger/media_lite/internal/pathguard"
	"github.com/sir_venger/media_lite/internal/usecase/archivesvc"
	"github.com/sir_venger/media_lite/internal/usecase/filesvc"
	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

type Server struct {
	FilesService filesvc.Service
	Archiver     *archivesvc.Archiver
	Resolver     *pathguard.Resolver
	Cfg          *config.Config
	Logger       logging.Logger
}

// NewServer конструктор
func NewServer(cfg *config.Config, logger logging.Logger) (http.Handler, *Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	resolver, err := pathguard.New(cfg.UploadDir)
	if err != nil {
		return nil, nil, err
	}

	srv := &Server{
		FilesService: filesvc.New(filesvc.Deps{
			Resolver: resolver,
			Logger:   logger.With("component", "files"),
		}),
		Archiver: archivesvc.New(archivesvc.Deps{
			Resolver:   resolver,
			ArchiveDir: cfg.ArchiveDir,
			Level:      cfg.CompressionLevel,
			Logger:     logger.With("component", "archives"),
		}),
		Resolver: resolver,
		Cfg:      cfg,
		Logger:   logger,
	}

	return srv.routes(), srv, nil
}

// routes регистрирует обработчики файлов, архивов, здоровья и уборки.
func (s *Server) routes() http.Handler {
	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID)
	rtr.Use(middleware.RealIP)
	rtr.Use(accessLog(s.Logger))
	rtr.Use(middleware.Recoverer)

	rtr.Get(mediaproto.HealthPath, s.health)
	rtr.Post(mediaproto.GCPath, s.gcOnce)

	rtr.Post(mediaproto.CompressPath, s.compress)
	rtr.Post(mediaproto.CompressSinglePath, s.compressSingle)
	rtr.Get(mediaproto.ServePattern, s.serveFile)
	rtr.Head(mediaproto.ServePattern, s.serveFile)

	return rtr
}

// downloadURL строит абсолютную ссылку на файл по пути относительно корня.
// Каждый сегмент экранируется: имена архивов содержат исходное имя файла.
func (s *Server) downloadURL(rel string) string {
	segs := strings.Split(rel, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.Cfg.BaseURL + mediaproto.FilesPrefix + "/" + strings.Join(segs, "/")
}
