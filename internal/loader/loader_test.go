package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"archive-viewer/internal/adapters/parser"
	"archive-viewer/internal/adapters/source"
	"archive-viewer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if res := args.Get(0); res != nil {
		return res.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

const (
	realIndex = `{"account_owner": "me", "users": [{"username": "me", "display_name": "Me"}]}`
	realDay   = `{"date": "2025-09-01", "conversations": [{"id": "c1", "conversation_id": "alice", "conversation_type": "individual", "messages": []}]}`
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoader(files map[string][]byte) *Loader {
	return New(source.NewMemorySource(files), parser.NewJsonParser(), WithLogger(quietLogger()))
}

func TestLoadIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("Настоящий индекс", func(t *testing.T) {
		l := newLoader(map[string][]byte{"index.json": []byte(realIndex)})

		res, err := l.LoadIndex(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.OriginArchive, res.Origin)
		assert.Equal(t, "me", res.Index.AccountOwner)
		assert.NoError(t, res.FallbackReason)
	})

	t.Run("Отсутствующий индекс заменяется примером", func(t *testing.T) {
		l := newLoader(nil)

		res, err := l.LoadIndex(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.OriginSample, res.Origin)
		assert.Equal(t, "mock_user", res.Index.AccountOwner)
		assert.ErrorIs(t, res.FallbackReason, source.ErrNotFound)
	})

	t.Run("Пустой список пользователей заменяется примером целиком", func(t *testing.T) {
		l := newLoader(map[string][]byte{"index.json": []byte(`{"account_owner": "me", "users": []}`)})

		res, err := l.LoadIndex(ctx)

		require.NoError(t, err)
		assert.Equal(t, domain.OriginSample, res.Origin)
		assert.Equal(t, "mock_user", res.Index.AccountOwner)
		assert.ErrorIs(t, res.FallbackReason, parser.ErrMalformed)
	})

	t.Run("Отмена до загрузки", func(t *testing.T) {
		src := new(mockSource)
		l := New(src, parser.NewJsonParser(), WithLogger(quietLogger()))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := l.LoadIndex(cctx)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrAborted)
		assert.ErrorIs(t, err, context.Canceled)
		src.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})
}

func TestLoadDay(t *testing.T) {
	ctx := context.Background()

	t.Run("Настоящий день", func(t *testing.T) {
		l := newLoader(map[string][]byte{"days/2025-09-01/conversations.json": []byte(realDay)})

		res, err := l.LoadDay(ctx, "2025/9/1")

		require.NoError(t, err)
		assert.Equal(t, domain.OriginArchive, res.Origin)
		assert.Equal(t, "2025-09-01", res.Day.Date)
		require.Len(t, res.Day.Conversations, 1)
		assert.Equal(t, "c1", res.Day.Conversations[0].ID)
	})

	t.Run("Пустая дата в файле берется из запроса", func(t *testing.T) {
		l := newLoader(map[string][]byte{
			"days/2025-09-01/conversations.json": []byte(`{"conversations": [{"id": "c1", "messages": []}]}`),
		})

		res, err := l.LoadDay(ctx, "2025-09-01")

		require.NoError(t, err)
		assert.Equal(t, "2025-09-01", res.Day.Date)
	})

	t.Run("Ошибка источника дает пример для совпадающей даты", func(t *testing.T) {
		src := new(mockSource)
		src.On("Fetch", mock.Anything, "days/2025-08-25/conversations.json").Return(nil, errors.New("connection refused"))
		l := New(src, parser.NewJsonParser(), WithLogger(quietLogger()))

		res, err := l.LoadDay(ctx, "2025-08-25")

		require.NoError(t, err)
		assert.Equal(t, domain.OriginSample, res.Origin)
		assert.Equal(t, "2025-08-25", res.Day.Date)
		assert.EqualError(t, errors.Unwrap(res.FallbackReason), "connection refused")
		src.AssertExpectations(t)
	})

	t.Run("Пустые переписки дают первый день примера", func(t *testing.T) {
		l := newLoader(map[string][]byte{
			"days/2025-09-01/conversations.json": []byte(`{"date": "2025-09-01", "conversations": []}`),
		})

		res, err := l.LoadDay(ctx, "2025-09-01")

		require.NoError(t, err)
		assert.Equal(t, domain.OriginSample, res.Origin)
		assert.Equal(t, "2025-08-24", res.Day.Date)
	})

	t.Run("Отмена во время загрузки не дает ни результата, ни примера", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		src := new(mockSource)
		src.On("Fetch", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, context.Canceled)
		l := New(src, parser.NewJsonParser(), WithLogger(quietLogger()))

		res, err := l.LoadDay(cctx, "2025-08-24")

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrAborted)
	})

	t.Run("Отмена после успешного получения данных", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		src := new(mockSource)
		src.On("Fetch", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return([]byte(realDay), nil)
		l := New(src, parser.NewJsonParser(), WithLogger(quietLogger()))

		res, err := l.LoadDay(cctx, "2025-09-01")

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrAborted)
	})

	t.Run("Некорректная дата", func(t *testing.T) {
		l := newLoader(nil)

		_, err := l.LoadDay(ctx, "../../etc/passwd")

		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("Собственный шаблон пути", func(t *testing.T) {
		l := New(
			source.NewMemorySource(map[string][]byte{"2025-09-01.json": []byte(realDay)}),
			parser.NewJsonParser(),
			WithDayPathPattern("%s.json"),
			WithLogger(quietLogger()),
		)

		res, err := l.LoadDay(ctx, "2025-09-01")

		require.NoError(t, err)
		assert.Equal(t, domain.OriginArchive, res.Origin)
	})
}
