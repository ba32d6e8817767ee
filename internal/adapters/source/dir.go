package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"archive-viewer/internal/ports"

	"golang.org/x/net/html"
)

// DirSource реализует интерфейс DataSource для чтения распакованного экспорта с диска.
type DirSource struct {
	root string
}

// NewDirSource создает новый экземпляр DirSource.
func NewDirSource(root string) ports.DataSource {
	return &DirSource{root: root}
}

// Fetch читает файл относительно корневого каталога экспорта.
func (s *DirSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if s.root == "" {
		return nil, fmt.Errorf("не указан каталог экспорта")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean("/" + strings.TrimLeft(path, "/"))
	full := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		return listDir(full)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read file %s: %w", full, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", full, err)
	}

	return data, nil
}

// listDir отдает каталог как HTML-листинг со ссылками на вложенные элементы,
// как это делает статический веб-сервер.
func listDir(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		escaped := html.EscapeString(name)
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", escaped, escaped)
	}
	b.WriteString("</body></html>\n")
	return []byte(b.String()), nil
}
