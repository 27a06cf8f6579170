package models

import "time"

// MediaFile описывает файл из каталога загрузок, готовый к выдаче клиенту.
type MediaFile struct {
	Name            string
	Size            int64
	ModTime         time.Time
	ContentType     string
	StreamableAudio bool
}
