// Package sample содержит встроенный демонстрационный архив, который показывается,
// когда настоящий экспорт недоступен или поврежден.
package sample

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"archive-viewer/internal/adapters/source"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"
)

//go:embed data
var files embed.FS

const (
	root      = "data"
	indexFile = "index.json"
	daysDir   = "days"
	dayFile   = "conversations.json"
)

// Index возвращает демонстрационный индекс. Каждый вызов отдает новую копию.
func Index() *domain.IndexData {
	var index domain.IndexData
	mustDecode(path.Join(root, indexFile), &index)
	return &index
}

// Dates возвращает отсортированные даты демонстрационного архива.
func Dates() []string {
	entries, err := fs.ReadDir(files, path.Join(root, daysDir))
	if err != nil {
		panic(fmt.Sprintf("sample: %v", err))
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	return dates
}

// Day возвращает демонстрационный день с указанной датой,
// а если такого нет - первый по порядку день.
func Day(date string) *domain.RawDayBundle {
	dates := Dates()
	chosen := dates[0]
	for _, d := range dates {
		if d == date {
			chosen = d
			break
		}
	}

	var day domain.RawDayBundle
	mustDecode(path.Join(root, daysDir, chosen, dayFile), &day)
	return &day
}

// Source возвращает DataSource, отдающий демонстрационный архив по тем же путям,
// что и настоящий экспорт.
func Source() ports.DataSource {
	data := make(map[string][]byte)
	err := fs.WalkDir(files, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := files.ReadFile(p)
		if err != nil {
			return err
		}
		data[strings.TrimPrefix(p, root+"/")] = content
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("sample: %v", err))
	}
	return source.NewMemorySource(data)
}

func mustDecode(name string, v any) {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("sample: %v", err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		panic(fmt.Sprintf("sample: decode %s: %v", name, err))
	}
}
