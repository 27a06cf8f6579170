// Package mediaclient — HTTP-клиент к REST API медиасервиса.
package mediaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

// StatusError — ответ сервера с кодом не из 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media service: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("media service: %d %s", e.Code, e.Message)
}

// Download — тело и метаданные ответа на GET файла.
type Download struct {
	Body          io.ReadCloser
	Status        int
	ContentType   string
	ContentRange  string
	ContentLength int64
}

type Client interface {
	// Compress Собрать несколько файлов в один архив
	Compress(ctx context.Context, filePaths []string) (mediaproto.CompressResponse, error)
	// CompressSingle Сжать один файл
	CompressSingle(ctx context.Context, filePath string) (mediaproto.CompressSingleResponse, error)
	// Fetch Скачать файл целиком или диапазон, если задан rangeHeader
	Fetch(ctx context.Context, rawURL, rangeHeader string) (Download, error)
}

type Options struct {
	HTTPClient *http.Client
	// Progress — куда рисовать индикатор скачивания; nil отключает индикатор.
	Progress io.Writer
}

type httpClient struct {
	baseURL  string
	c        *http.Client
	progress io.Writer
}

// New создаёт клиента к сервису по адресу baseURL.
func New(baseURL string, opts Options) Client {
	c := opts.HTTPClient
	if c == nil {
		c = &http.Client{}
	}
	return &httpClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		c:        c,
		progress: opts.Progress,
	}
}

// Compress отправляет список путей и возвращает ссылку на архив.
func (h *httpClient) Compress(ctx context.Context, filePaths []string) (mediaproto.CompressResponse, error) {
	var out mediaproto.CompressResponse
	err := h.postJSON(ctx, mediaproto.CompressPath, mediaproto.CompressRequest{FilePaths: filePaths}, &out)
	return out, err
}

// CompressSingle сжимает один файл.
func (h *httpClient) CompressSingle(ctx context.Context, filePath string) (mediaproto.CompressSingleResponse, error) {
	var out mediaproto.CompressSingleResponse
	err := h.postJSON(ctx, mediaproto.CompressSinglePath, mediaproto.CompressSingleRequest{FilePath: filePath}, &out)
	return out, err
}

// Fetch скачивает файл и возвращает поток с телом. rawURL может быть
// абсолютной ссылкой из ответа сжатия или путём вида "audio-files/a.mp3".
func (h *httpClient) Fetch(ctx context.Context, rawURL, rangeHeader string) (Download, error) {
	u, err := h.fileURL(rawURL)
	if err != nil {
		return Download{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Download{}, err
	}
	if rangeHeader != "" {
		req.Header.Set(mediaproto.HeaderRange, rangeHeader)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return Download{}, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		defer resp.Body.Close()
		return Download{}, decodeError(resp)
	}

	d := Download{
		Body:          resp.Body,
		Status:        resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentRange:  resp.Header.Get(mediaproto.HeaderContentRange),
		ContentLength: resp.ContentLength,
	}

	if h.progress != nil {
		m := newMeter(resp.Body, h.progress, fileName(u), resp.ContentLength, d.ContentRange)
		m.draw("")
		d.Body = m
	}

	return d, nil
}

func (h *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// fileURL превращает относительный путь файла в ссылку на маршрут отдачи.
func (h *httpClient) fileURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty file url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.IsAbs() {
		return raw, nil
	}

	rel := strings.TrimPrefix(raw, "/")
	rel = strings.TrimPrefix(rel, strings.TrimPrefix(mediaproto.FilesPrefix, "/")+"/")
	return h.baseURL + mediaproto.FilesPrefix + "/" + rel, nil
}

func decodeError(resp *http.Response) error {
	var body mediaproto.ErrorResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, &body); err != nil || body.Error == "" {
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// fileName берёт имя файла из последнего сегмента ссылки.
func fileName(u string) string {
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	}
	if name, err := url.PathUnescape(u); err == nil {
		return name
	}
	return u
}
