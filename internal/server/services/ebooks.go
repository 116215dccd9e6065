package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/filestore"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

// DefaultEbookAuthor is stored when an upload names no author.
const DefaultEbookAuthor = "Desconhecido"

var ebookMimeTypes = map[string]models.EbookFileType{
	"application/pdf":      models.EbookPDF,
	"application/epub+zip": models.EbookEPUB,
}

// EbookUpload is one multipart file plus its optional metadata.
type EbookUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Title       string
	Author      string
}

type ProgressInput struct {
	Page       int
	Percentage float64
	CFI        string
}

type SyncResult struct {
	Synced int `json:"synced"`
	Total  int `json:"total"`
}

type EbookService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       filestore.Store
	root        string
	logger      logging.Logger
	now         func() time.Time
}

func NewEbookService(db *sql.DB, m repomanager.RepositoryManager, store filestore.Store, cfg *config.Config, l logging.Logger) *EbookService {
	return &EbookService{
		db:          db,
		repomanager: m,
		store:       store,
		root:        cfg.S3Prefix,
		logger:      l.With("module", "ebooks"),
		now:         time.Now,
	}
}

func (s *EbookService) List(ctx context.Context, userID string) ([]models.Ebook, error) {
	return s.repomanager.Ebooks(s.db).List(ctx, userID)
}

// Upload checks the declared mime type before touching the store, streams
// the file into the caller's library folder and records its metadata.
// When the metadata insert fails the stored object is left behind.
func (s *EbookService) Upload(ctx context.Context, userID string, in EbookUpload) (*models.Ebook, error) {
	mime, _, _ := strings.Cut(in.ContentType, ";")
	fileType, ok := ebookMimeTypes[strings.ToLower(strings.TrimSpace(mime))]
	if !ok {
		return nil, common.NewValidationError("only PDF and EPUB files are accepted")
	}
	if in.Body == nil {
		return nil, common.NewValidationError("file is required")
	}

	key := filestore.LibraryPrefix(s.root, userID) + uuid.NewString() + "." + string(fileType)
	if err := s.store.Upload(ctx, key, fileType.ContentType(), in.Body, in.Size); err != nil {
		return nil, fmt.Errorf("store ebook: %w", err)
	}

	e := &models.Ebook{
		UserID:       userID,
		RemoteFileID: key,
		Title:        firstNonEmpty(in.Title, titleFromFileName(in.FileName), untitled),
		Author:       firstNonEmpty(in.Author, DefaultEbookAuthor),
		FileType:     fileType,
		Status:       models.EbookWantToRead,
	}
	if in.Size > 0 {
		size := in.Size
		e.SizeBytes = &size
	}

	created, err := s.repomanager.Ebooks(s.db).Create(ctx, e)
	if err != nil {
		s.logger.Error(ctx, "ebook stored without metadata", "key", key, "user_id", userID, "error", err)
		return nil, fmt.Errorf("error creating ebook: %w", err)
	}
	return created, nil
}

// Open returns the caller's ebook and a reader over its bytes. The reader
// must be closed.
func (s *EbookService) Open(ctx context.Context, userID, id string) (*models.Ebook, io.ReadCloser, error) {
	if !ValidID(id) {
		return nil, nil, common.ErrorNotFound
	}
	e, err := s.repomanager.Ebooks(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.store.Open(ctx, e.RemoteFileID)
	if err != nil {
		return nil, nil, err
	}
	return e, body, nil
}

// Sync registers every pdf or epub in the caller's library folder that has
// no row yet.
func (s *EbookService) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	objects, err := s.store.List(ctx, filestore.LibraryPrefix(s.root, userID))
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	repo := s.repomanager.Ebooks(s.db)
	ids, err := repo.RemoteFileIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	res := &SyncResult{Total: len(objects)}
	for _, o := range objects {
		if _, ok := known[o.Key]; ok {
			continue
		}

		fileType := models.EbookPDF
		if strings.EqualFold(path.Ext(o.Key), ".epub") {
			fileType = models.EbookEPUB
		}
		e := &models.Ebook{
			UserID:       userID,
			RemoteFileID: o.Key,
			Title:        firstNonEmpty(titleFromFileName(o.Name), untitled),
			Author:       DefaultEbookAuthor,
			FileType:     fileType,
			Status:       models.EbookWantToRead,
		}
		if o.Size > 0 {
			size := o.Size
			e.SizeBytes = &size
		}

		inserted, err := repo.CreateIfAbsent(ctx, e)
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Synced++
		}
		known[o.Key] = struct{}{}
	}
	return res, nil
}

// UpdateProgress stores the reading position. Starting to read moves the
// book to reading; reaching 100% finishes it.
func (s *EbookService) UpdateProgress(ctx context.Context, userID, id string, in ProgressInput) (*models.Ebook, error) {
	if !ValidID(id) {
		return nil, common.ErrorNotFound
	}
	if in.Page < 1 {
		return nil, common.NewValidationError("page must be 1 or more")
	}
	if in.Percentage < 0 || in.Percentage > 100 || math.IsNaN(in.Percentage) {
		return nil, common.NewValidationError("percentage must be between 0 and 100")
	}

	repo := s.repomanager.Ebooks(s.db)
	e, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	status := e.Status
	switch {
	case in.Percentage >= 100:
		status = models.EbookFinished
	case status == models.EbookWantToRead || status == models.EbookAbandoned:
		status = models.EbookReading
	}

	progress := models.ReadingProgress{Page: in.Page, Percentage: in.Percentage, CFI: strings.TrimSpace(in.CFI)}
	at := s.now().UTC()
	if err := repo.UpdateProgress(ctx, userID, id, progress, status, at); err != nil {
		return nil, err
	}

	e.ReadingProgress = progress
	e.Status = status
	e.LastReadAt = &at
	return e, nil
}

// Delete drops the metadata row; the stored file stays.
func (s *EbookService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Ebooks(s.db).Delete(ctx, userID, id)
}

// DownloadURL returns a time-limited direct link to the caller's file.
func (s *EbookService) DownloadURL(ctx context.Context, userID, id string, ttl time.Duration) (string, error) {
	if !ValidID(id) {
		return "", common.ErrorNotFound
	}
	e, err := s.repomanager.Ebooks(s.db).Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.store.Presign(ctx, e.RemoteFileID, ttl)
}

func titleFromFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := path.Ext(base)
	if strings.EqualFold(ext, ".pdf") || strings.EqualFold(ext, ".epub") {
		base = base[:len(base)-len(ext)]
	}
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(base)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
