package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"
)

// ErrMalformed возвращается, когда ресурс разобран, но непригоден для показа:
// пустое тело, некорректный JSON, пустой список пользователей или нет переписок.
var ErrMalformed = errors.New("malformed payload")

// JsonParser реализует интерфейс Parser для разбора JSON данных.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// ParseIndex преобразует срез байт с JSON в глобальный индекс.
func (p *JsonParser) ParseIndex(data []byte) (*domain.IndexData, error) {
	var index domain.IndexData
	if err := decode(data, &index); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	if len(index.Users) == 0 {
		return nil, fmt.Errorf("index: empty user list: %w", ErrMalformed)
	}
	return &index, nil
}

// ParseDay преобразует срез байт с JSON в сырой файл дня.
func (p *JsonParser) ParseDay(data []byte) (*domain.RawDayBundle, error) {
	var day domain.RawDayBundle
	if err := decode(data, &day); err != nil {
		return nil, fmt.Errorf("day: %w", err)
	}
	if len(day.Conversations) == 0 {
		return nil, fmt.Errorf("day %q: no conversations: %w", day.Date, ErrMalformed)
	}
	return &day, nil
}

func decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty payload: %w", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal json: %w: %w", ErrMalformed, err)
	}
	return nil
}
