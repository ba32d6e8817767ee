package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"archive-viewer/internal/adapters/source"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"
	"archive-viewer/internal/sample"

	"golang.org/x/net/html"
)

// Source - источник, из которого получены даты.
type Source string

const (
	SourceIndex    Source = "index"
	SourceManifest Source = "manifest"
	SourceListing  Source = "listing"
	SourceSample   Source = "sample"
)

// Mode определяет, как результат стратегии сочетается с остальными.
type Mode int

const (
	// ModeUnion - даты всегда добавляются к результату.
	ModeUnion Mode = iota
	// ModeFirst - побеждает первая стратегия, давшая хотя бы одну корректную дату,
	// остальные стратегии этого режима пропускаются.
	ModeFirst
	// ModeFallback - используется, только если результат все еще пуст.
	ModeFallback
)

// Outcome - сырые строки дат, собранные одной стратегией.
type Outcome struct {
	Dates    []string
	Endpoint string
}

// Strategy - один способ узнать, за какие дни есть данные.
type Strategy interface {
	Source() Source
	Mode() Mode
	Collect(ctx context.Context, index *domain.IndexData) (Outcome, error)
}

// DefaultManifestPaths - пути манифестов в порядке приоритета.
var DefaultManifestPaths = []string{
	"days/index.json",
	"days/manifest.json",
	"available_dates.json",
	"dates.json",
}

// DefaultListingPath - каталог, HTML-листинг которого сканируется последним.
const DefaultListingPath = "days/"

// Ключи объекта манифеста, под которыми может лежать список дат.
var manifestKeys = []string{"dates", "available_dates", "availableDates", "days"}

// IndexStrategy берет даты, встроенные в глобальный индекс.
type IndexStrategy struct{}

func (IndexStrategy) Source() Source { return SourceIndex }
func (IndexStrategy) Mode() Mode     { return ModeUnion }

func (IndexStrategy) Collect(_ context.Context, index *domain.IndexData) (Outcome, error) {
	if index == nil {
		return Outcome{}, nil
	}
	return Outcome{Dates: index.AvailableDates}, nil
}

// ManifestStrategy читает файл-манифест со списком дат.
type ManifestStrategy struct {
	Src  ports.DataSource
	Path string
}

func (s ManifestStrategy) Source() Source { return SourceManifest }
func (s ManifestStrategy) Mode() Mode     { return ModeFirst }

func (s ManifestStrategy) Collect(ctx context.Context, _ *domain.IndexData) (Outcome, error) {
	data, err := s.Src.Fetch(ctx, s.Path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Outcome{Endpoint: s.Path}, nil
		}
		return Outcome{Endpoint: s.Path}, err
	}
	dates, err := ParseManifest(data)
	if err != nil {
		return Outcome{Endpoint: s.Path}, fmt.Errorf("manifest %s: %w", s.Path, err)
	}
	return Outcome{Dates: dates, Endpoint: s.Path}, nil
}

// ParseManifest извлекает строки из манифеста: голого JSON-списка
// или объекта с одним из известных ключей. Нестроковые элементы пропускаются.
func ParseManifest(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var list []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json: %w", err)
		}
		return stringsOf(list), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	for _, key := range manifestKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		return stringsOf(list), nil
	}
	return nil, nil
}

func stringsOf(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// ListingStrategy сканирует HTML-листинг каталога дней.
type ListingStrategy struct {
	Src  ports.DataSource
	Path string
}

func (s ListingStrategy) Source() Source { return SourceListing }
func (s ListingStrategy) Mode() Mode     { return ModeFirst }

func (s ListingStrategy) Collect(ctx context.Context, _ *domain.IndexData) (Outcome, error) {
	data, err := s.Src.Fetch(ctx, s.Path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return Outcome{Endpoint: s.Path}, nil
		}
		return Outcome{Endpoint: s.Path}, err
	}
	dates, err := ScanListing(data)
	if err != nil {
		return Outcome{Endpoint: s.Path}, fmt.Errorf("listing %s: %w", s.Path, err)
	}
	return Outcome{Dates: dates, Endpoint: s.Path}, nil
}

var listingDateRegex = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ScanListing находит подстроки вида YYYY-MM-DD в атрибутах href ссылок HTML-документа.
func ScanListing(data []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var dates []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					dates = append(dates, listingDateRegex.FindAllString(attr.Val, -1)...)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return dates, nil
}

// SampleStrategy отдает даты встроенного примера, чтобы результат никогда не был пустым.
type SampleStrategy struct{}

func (SampleStrategy) Source() Source { return SourceSample }
func (SampleStrategy) Mode() Mode     { return ModeFallback }

func (SampleStrategy) Collect(context.Context, *domain.IndexData) (Outcome, error) {
	return Outcome{Dates: sample.Dates()}, nil
}

// DefaultStrategies собирает стандартную цепочку: индекс, манифесты, листинг, пример.
func DefaultStrategies(src ports.DataSource, manifestPaths []string, listingPath string) []Strategy {
	if manifestPaths == nil {
		manifestPaths = DefaultManifestPaths
	}
	if listingPath == "" {
		listingPath = DefaultListingPath
	}

	strategies := []Strategy{IndexStrategy{}}
	for _, p := range manifestPaths {
		strategies = append(strategies, ManifestStrategy{Src: src, Path: p})
	}
	strategies = append(strategies, ListingStrategy{Src: src, Path: listingPath}, SampleStrategy{})
	return strategies
}
