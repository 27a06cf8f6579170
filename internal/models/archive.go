package models

import "fmt"

// ArchiveResult возвращается после сборки архива и содержит ключевые метаданные.
type ArchiveResult struct {
	RelPath        string
	Entries        int
	OriginalSize   int64
	CompressedSize int64
	Digest         string
}

// Stats пересчитывает статистику сжатия по размерам архива.
func (r ArchiveResult) Stats() CompressionStats {
	return NewCompressionStats(r.OriginalSize, r.CompressedSize)
}

// CompressionStats — итоговые размеры до и после сжатия.
type CompressionStats struct {
	OriginalSize   int64
	CompressedSize int64
	RatioPercent   float64
}

// NewCompressionStats считает процент экономии; для пустого оригинала это 0.
func NewCompressionStats(original, compressed int64) CompressionStats {
	st := CompressionStats{OriginalSize: original, CompressedSize: compressed}
	if original > 0 {
		st.RatioPercent = float64(original-compressed) / float64(original) * 100
	}
	return st
}

// Ratio форматирует процент с двумя знаками после запятой, например "75.00%".
func (s CompressionStats) Ratio() string {
	return fmt.Sprintf("%.2f%%", s.RatioPercent)
}
