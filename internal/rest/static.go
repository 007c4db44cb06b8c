package rest

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const notFoundBody = "<h1>404 - File Not Found</h1>"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// sqliteSidecars are the files SQLite keeps next to a database.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

// StaticServer serves files below root. Request paths are cleaned before joining,
// so nothing outside root is reachable. Dot-files and the hidden paths answer 404.
type StaticServer struct {
	root   string
	hidden map[string]struct{}
}

// NewStaticServer serves root. hidden names files, such as the local database, that must
// never be served even when they sit below root.
func NewStaticServer(root string, hidden ...string) *StaticServer {
	s := &StaticServer{root: root, hidden: make(map[string]struct{})}
	for _, h := range hidden {
		if h == "" {
			continue
		}
		abs, err := filepath.Abs(h)
		if err != nil {
			continue
		}
		for _, suffix := range sqliteSidecars {
			s.hidden[abs+suffix] = struct{}{}
		}
	}
	return s
}

func (s *StaticServer) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Data(http.StatusNotFound, "text/html", []byte(notFoundBody))
		return
	}

	urlPath := path.Clean("/" + c.Request.URL.Path)
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	file := filepath.Join(s.root, filepath.FromSlash(urlPath))
	if s.isHidden(urlPath, file) {
		c.Data(http.StatusNotFound, "text/html", []byte(notFoundBody))
		return
	}

	content, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		c.Data(http.StatusNotFound, "text/html", []byte(notFoundBody))
		return
	}
	if err != nil {
		log.Error().Err(err).Str("path", urlPath).Msg("Failed to read static file")
		c.String(http.StatusInternalServerError, "Server Error: %s", errorCode(err))
		return
	}

	c.Data(http.StatusOK, contentType(urlPath), content)
}

func (s *StaticServer) isHidden(urlPath, file string) bool {
	for _, segment := range strings.Split(urlPath, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return true
	}
	_, ok := s.hidden[abs]
	return ok
}

func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// errorCode drops the file path from err so it is not echoed to clients
func errorCode(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
