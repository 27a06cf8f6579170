package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sir_venger/media_lite/internal/app/resthttp"
	"github.com/sir_venger/media_lite/internal/config"
)

type env struct {
	root string
	url  string
	cfg  *config.Config
}

// newEnv поднимает REST-сервис поверх временного каталога загрузок.
func newEnv(t *testing.T) *env {
	t.Helper()

	root := t.TempDir()
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.UploadDir = root
	cfg.BaseURL = srv.URL

	h, _, err := resthttp.NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("new rest server: %v", err)
	}
	handler = h

	return &env{root: root, url: srv.URL, cfg: cfg}
}

func (e *env) put(t *testing.T, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(e.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, method, url, rangeHeader string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func postJSON(url string, payload, out any) (int, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %q: %w", string(body), err)
		}
	}
	return resp.StatusCode, nil
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i/7)
	}
	return b
}
