package resthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/internal/pathguard"
	"github.com/sir_venger/media_lite/pkg/httperrors"
	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

const maxRequestBody = 1 << 20

// compress собирает перечисленные файлы в один архив и отвечает ссылкой и статистикой.
func (s *Server) compress(w http.ResponseWriter, r *http.Request) {
	var req mediaproto.CompressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.Write(w, err)
		return
	}
	if len(req.FilePaths) == 0 {
		httperrors.WriteMessage(w, http.StatusBadRequest, "at least one file path is required")
		return
	}

	sources := make([]pathguard.ResolvedPath, 0, len(req.FilePaths))
	for _, fp := range req.FilePaths {
		p, err := s.resolveInput(fp)
		if err != nil {
			s.logFailure(r, err)
			httperrors.Write(w, err)
			return
		}
		sources = append(sources, p)
	}

	res, err := s.Archiver.CompressMany(r.Context(), sources)
	if err != nil {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}

	stats := res.Stats()
	writeJSON(w, http.StatusOK, mediaproto.CompressResponse{
		Message:          "files compressed successfully",
		ZipFileURL:       s.downloadURL(res.RelPath),
		ZipFilePath:      res.RelPath,
		FilesCompressed:  res.Entries,
		OriginalSize:     stats.OriginalSize,
		CompressedSize:   stats.CompressedSize,
		CompressionRatio: stats.Ratio(),
		Checksum:         res.Digest,
	})
}

// compressSingle сжимает один файл и отвечает ссылкой и процентом экономии.
func (s *Server) compressSingle(w http.ResponseWriter, r *http.Request) {
	var req mediaproto.CompressSingleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.Write(w, err)
		return
	}

	p, err := s.resolveInput(req.FilePath)
	if err != nil {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}

	res, err := s.Archiver.CompressOne(r.Context(), p)
	if err != nil {
		s.logFailure(r, err)
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mediaproto.CompressSingleResponse{
		URL:   s.downloadURL(res.RelPath),
		Ratio: res.Stats().Ratio(),
	})
}

// resolveInput отвергает пустые пути и пути за пределами каталога загрузок.
func (s *Server) resolveInput(raw string) (pathguard.ResolvedPath, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: file path is required", models.ErrBadRequest)
	}
	return s.Resolver.Resolve(raw)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", models.ErrBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
