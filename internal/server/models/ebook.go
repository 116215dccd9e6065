package models

import "time"

type EbookFileType string

const (
	EbookPDF  EbookFileType = "pdf"
	EbookEPUB EbookFileType = "epub"
)

// ContentType is the mime type the file is served with.
func (t EbookFileType) ContentType() string {
	if t == EbookEPUB {
		return "application/epub+zip"
	}
	return "application/pdf"
}

type EbookStatus string

const (
	EbookWantToRead EbookStatus = "want_to_read"
	EbookReading    EbookStatus = "reading"
	EbookFinished   EbookStatus = "finished"
	EbookAbandoned  EbookStatus = "abandoned"
)

type ReadingProgress struct {
	Page       int     `json:"page"`
	Percentage float64 `json:"percentage"`
	CFI        string  `json:"cfi,omitempty"`
}

// Ebook is the metadata row; the bytes live in the file store under
// RemoteFileID.
type Ebook struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	RemoteFileID    string          `json:"remote_file_id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ThumbnailURL    *string         `json:"thumbnail_url"`
	FileType        EbookFileType   `json:"file_type"`
	SizeBytes       *int64          `json:"file_size_bytes"`
	TotalPages      *int            `json:"total_pages"`
	ReadingProgress ReadingProgress `json:"reading_progress"`
	Status          EbookStatus     `json:"status"`
	LastReadAt      *time.Time      `json:"last_read_at"`
	CreatedAt       time.Time       `json:"created_at"`
}
