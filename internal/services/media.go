package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"glyde/internal/utils"

	"github.com/google/uuid"
)

// MediaPrefix is the URL path uploads are served under.
const MediaPrefix = "uploads"

// MediaStore writes uploaded videos to disk and hands back a path reference.
type MediaStore struct {
	dir string
}

func NewMediaStore(dir string) *MediaStore {
	return &MediaStore{dir: dir}
}

func (m *MediaStore) Dir() string {
	return m.dir
}

// Save stores an uploaded file for username.
func (m *MediaStore) Save(username string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	return m.SaveReader(username, header.Filename, src)
}

// SaveReader writes r as <username>_<id>_<basename> and returns "uploads/<that name>".
func (m *MediaStore) SaveReader(username, filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if !utils.IsVideoPath(base) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(base))
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s", safeName(username), uuid.NewString()[:8], base)
	dst, err := os.Create(filepath.Join(m.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path.Join(MediaPrefix, name), nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, s)
}
