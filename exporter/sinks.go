package exporter

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// FileSink writes exported images into a directory
type FileSink struct {
	fs  gofs.Fs
	dir string

	mu       sync.Mutex
	lastPath string
}

func NewFileSink(fs gofs.Fs, dir string) *FileSink {
	return &FileSink{fs: fs, dir: dir}
}

func (s *FileSink) Emit(blob *Blob) errorsx.Error {
	err := s.fs.MkdirAll(s.dir, 0755)
	if err != nil {
		return errorsx.Wrap(err, "dir", s.dir)
	}

	filePath := filepath.Join(s.dir, filepath.Base(blob.Filename))

	err = s.fs.WriteFile(filePath, blob.Data, os.FileMode(0644))
	if err != nil {
		return errorsx.Wrap(err, "path", filePath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPath = filePath

	return nil
}

// LastPath is the path of the last file written, or "" if none has been written
func (s *FileSink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

type WriterSink struct {
	writer io.Writer
}

func NewWriterSink(writer io.Writer) *WriterSink {
	return &WriterSink{writer}
}

func (s *WriterSink) Emit(blob *Blob) errorsx.Error {
	_, err := s.writer.Write(blob.Data)
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

// HTTPDownloadSink sends the image as a file download
type HTTPDownloadSink struct {
	w http.ResponseWriter
}

func NewHTTPDownloadSink(w http.ResponseWriter) *HTTPDownloadSink {
	return &HTTPDownloadSink{w}
}

func (s *HTTPDownloadSink) Emit(blob *Blob) errorsx.Error {
	header := s.w.Header()
	header.Set("Content-Type", blob.MIMEType)
	header.Set("Content-Length", strconv.Itoa(len(blob.Data)))
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Filename}))

	_, err := s.w.Write(blob.Data)
	if err != nil {
		return errorsx.Wrap(err, "filename", blob.Filename)
	}

	return nil
}
