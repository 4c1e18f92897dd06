package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDocuments are tried, in order, when a directory is requested.
var DefaultDocuments = []string{"index.html", "index.htm", "default.htm"}

// StaticFiles serves files from the application's physical root.
// Only GET and HEAD are allowed; paths escaping the root are not found.
type StaticFiles struct {
	// Documents overrides DefaultDocuments when non-nil.
	Documents []string
}

// ProcessRequest implements Pipeline.
func (s StaticFiles) ProcessRequest(_ context.Context, wr WorkerRequest) (bool, error) {
	switch wr.Verb() {
	case http.MethodGet, http.MethodHead:
	default:
		wr.SendStatus(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		wr.SendKnownResponseHeader(HeaderAllow, "GET, HEAD")
		return true, nil
	}

	path, info, ok := s.resolve(wr)
	if !ok {
		sendText(wr, http.StatusNotFound, "Not Found")
		return true, nil
	}

	wr.SendStatus(http.StatusOK, http.StatusText(http.StatusOK))
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	wr.SendKnownResponseHeader(HeaderContentType, contentType)
	wr.SendKnownResponseHeader(HeaderLastModified, info.ModTime().UTC().Format(http.TimeFormat))
	wr.SendKnownResponseHeader(HeaderAcceptRanges, "none")

	if err := wr.SendResponseFromFile(path, 0, info.Size()); err != nil {
		return true, err
	}
	return true, nil
}

// resolve maps the request onto a regular file under the physical root.
func (s StaticFiles) resolve(wr WorkerRequest) (string, fs.FileInfo, bool) {
	root := filepath.Clean(wr.AppPathTranslated())
	path := filepath.Clean(wr.FilePathTranslated())

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", nil, false
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", nil, false
	}
	if info.Mode().IsRegular() {
		return path, info, true
	}
	if !info.IsDir() {
		return "", nil, false
	}

	docs := s.Documents
	if docs == nil {
		docs = DefaultDocuments
	}
	for _, doc := range docs {
		candidate := filepath.Join(path, doc)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, info, true
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", nil, false
		}
	}
	return "", nil, false
}

func sendText(wr WorkerRequest, code int, body string) {
	wr.SendStatus(code, http.StatusText(code))
	wr.SendKnownResponseHeader(HeaderContentType, "text/plain; charset=utf-8")
	wr.SendResponseFromMemory([]byte(body))
}
