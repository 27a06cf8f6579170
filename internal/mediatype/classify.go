// Package mediatype определяет MIME-тип файла по расширению.
package mediatype

import (
	"strings"
)

// Default отдаётся для неизвестных расширений и файлов без расширения.
const Default = "application/octet-stream"

type kind struct {
	mime  string
	audio bool
	// packed — содержимое уже сжато, повторный deflate почти ничего не даёт.
	packed bool
}

var byExt = map[string]kind{
	"jpg":  {mime: "image/jpeg", packed: true},
	"jpeg": {mime: "image/jpeg", packed: true},
	"png":  {mime: "image/png", packed: true},
	"gif":  {mime: "image/gif", packed: true},
	"webp": {mime: "image/webp", packed: true},
	"mp3":  {mime: "audio/mpeg", audio: true, packed: true},
	"wav":  {mime: "audio/wav", audio: true},
	"flac": {mime: "audio/flac", audio: true, packed: true},
	"mid":  {mime: "audio/midi", audio: true},
	"midi": {mime: "audio/midi", audio: true},
	"zip":  {mime: "application/zip", packed: true},
}

// Classify возвращает MIME-тип и признак аудио, которое можно отдавать диапазонами.
func Classify(fileName string) (string, bool) {
	k, ok := byExt[ext(fileName)]
	if !ok {
		return Default, false
	}
	return k.mime, k.audio
}

// IsStreamableAudio — true только для mp3, wav, flac, mid и midi.
func IsStreamableAudio(fileName string) bool {
	_, audio := Classify(fileName)
	return audio
}

// IsPrecompressed сообщает, что формат уже сжат и его выгоднее класть в архив без deflate.
func IsPrecompressed(fileName string) bool {
	return byExt[ext(fileName)].packed
}

// ext берёт последний сегмент после точки в нижнем регистре.
func ext(fileName string) string {
	i := strings.LastIndexByte(fileName, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(fileName[i+1:])
}
