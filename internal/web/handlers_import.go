package web

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/ingest"
)

// csvContentTypes are the part types browsers send for .csv files.
var csvContentTypes = []string{
	"text/csv",
	"application/csv",
	"text/comma-separated-values",
	"application/vnd.ms-excel",
	"text/plain",
	"application/octet-stream",
}

// isCSV checks the declared file type. The extension must be .csv and the
// part type, when present, must be one of csvContentTypes. Content is not
// sniffed.
func isCSV(h *multipart.FileHeader) bool {
	if !strings.EqualFold(filepath.Ext(h.Filename), ".csv") {
		return false
	}
	ct := h.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	for _, ok := range csvContentTypes {
		if mt == ok {
			return true
		}
	}
	return false
}

// openUpload parses the multipart form and returns the "file" part.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<16))

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
		}
		return nil, nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	if header.Size > maxSize {
		file.Close()
		return nil, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
	}
	if !isCSV(header) {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %s", errNotCSV, header.Filename)
	}
	return file, header, nil
}

// importRequest reads the optional year_policy form field.
func importRequest(r *http.Request, header *multipart.FileHeader) (core.ImportRequest, error) {
	req := core.ImportRequest{FileName: header.Filename, Size: header.Size}
	if raw := r.FormValue("year_policy"); raw != "" {
		p, err := ingest.ParseYearPolicy(raw)
		if err != nil {
			return req, err
		}
		req.YearPolicy = p
	}
	return req, nil
}

// handleImport replaces the player pool with the uploaded CSV. The file is
// streamed into the parser.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.openUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	if err := requireConfirm(r); err != nil {
		s.respondError(w, r, err)
		return
	}
	req, err := importRequest(r, header)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Import(WithRequestMetadata(r.Context(), r), file, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleImportPreview parses the CSV and reports what an import would do.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.openUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	req, err := importRequest(r, header)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.PreviewImport(r.Context(), file, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleReset restores the seed roster and teams.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := requireConfirm(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.Reset{})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}
