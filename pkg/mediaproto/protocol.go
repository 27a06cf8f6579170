// Package mediaproto описывает HTTP-протокол медиасервиса: маршруты и тела запросов/ответов.
package mediaproto

// Маршруты REST API.
const (
	FilesPrefix        = "/api/files"
	ServePattern       = FilesPrefix + "/{subDirectory}/{fileName}"
	CompressPath       = FilesPrefix + "/compress"
	CompressSinglePath = FilesPrefix + "/compress/single"
	HealthPath         = "/health"
	GCPath             = "/admin/gc"
	HeaderRange        = "Range"
	HeaderContentRange = "Content-Range"
)

// CompressRequest — тело POST /api/files/compress.
type CompressRequest struct {
	FilePaths []string `json:"filePaths"`
}

// CompressResponse — результат сжатия нескольких файлов.
type CompressResponse struct {
	Message          string `json:"message"`
	ZipFileURL       string `json:"zipFileUrl"`
	ZipFilePath      string `json:"zipFilePath"`
	FilesCompressed  int    `json:"filesCompressed"`
	OriginalSize     int64  `json:"originalSize"`
	CompressedSize   int64  `json:"compressedSize"`
	CompressionRatio string `json:"compressionRatio"`
	Checksum         string `json:"checksum,omitempty"`
}

// CompressSingleRequest — тело POST /api/files/compress/single.
type CompressSingleRequest struct {
	FilePath string `json:"filePath"`
}

// CompressSingleResponse — результат сжатия одного файла.
type CompressSingleResponse struct {
	URL string `json:"url"`
	// Ratio — строка с процентом экономии в том же формате, что и
	// CompressResponse.CompressionRatio, например "75.00%", а не число.
	Ratio string `json:"ratio"`
}

// ErrorResponse — тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health — payload ответа /health.
type Health struct {
	OK         bool  `json:"ok"`
	TotalBytes int64 `json:"total_bytes"`
	Archives   int   `json:"archives"`
}
