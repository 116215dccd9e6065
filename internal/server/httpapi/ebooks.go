package httpapi

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/relay"
	"github.com/hubpessoal/hub/internal/server/services"
)

// Form fields beyond this stay on disk while the upload is parsed.
const uploadMemory = 8 << 20

type progressRequest struct {
	Page       int     `json:"page"`
	Percentage float64 `json:"percentage"`
	CFI        string  `json:"cfi"`
}

func (a *API) listEbooks(w http.ResponseWriter, r *http.Request) {
	books, err := a.Ebooks.List(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, books)
}

func (a *API) uploadEbook(w http.ResponseWriter, r *http.Request) {
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		a.fail(w, r, common.NewValidationError("expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.fail(w, r, common.NewValidationError("no file sent"))
		return
	}
	defer file.Close()

	book, err := a.Ebooks.Upload(r.Context(), UserID(r.Context()), services.EbookUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, book)
}

// streamEbook relays the stored file. Once the first byte is out the status
// is fixed, so later failures are only logged.
func (a *API) streamEbook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}

	book, body, err := a.Ebooks.Open(r.Context(), UserID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", book.FileType.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": strings.TrimSpace(book.Title) + "." + string(book.FileType),
	}))
	h.Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)

	n, err := relay.Copy(r.Context(), w, body)
	if err != nil {
		a.log.Warn(r.Context(), "ebook stream interrupted", "ebook_id", id, "bytes", n, "error", err)
	}
}

func (a *API) syncEbooks(w http.ResponseWriter, r *http.Request) {
	res, err := a.Ebooks.Sync(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (a *API) updateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}
	var in progressRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	book, err := a.Ebooks.UpdateProgress(r.Context(), UserID(r.Context()), id, services.ProgressInput(in))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, book)
}

func (a *API) deleteEbook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Ebooks.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}
