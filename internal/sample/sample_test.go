package sample

import (
	"context"
	"testing"

	"archive-viewer/internal/adapters/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleData(t *testing.T) {
	t.Run("Индекс проходит проверку парсера", func(t *testing.T) {
		index := Index()
		assert.Equal(t, "mock_user", index.AccountOwner)
		assert.Len(t, index.Users, 3)
		assert.Equal(t, Dates(), index.AvailableDates)
	})

	t.Run("Индекс возвращается копией", func(t *testing.T) {
		a := Index()
		a.Users[0].DisplayName = "changed"
		assert.Equal(t, "Mock User", Index().Users[0].DisplayName)
	})

	t.Run("Даты отсортированы", func(t *testing.T) {
		assert.Equal(t, []string{"2025-08-24", "2025-08-25"}, Dates())
	})

	t.Run("День по дате", func(t *testing.T) {
		day := Day("2025-08-25")
		assert.Equal(t, "2025-08-25", day.Date)
		require.Len(t, day.Conversations, 1)
		assert.True(t, day.Conversations[0].IsGroup())
	})

	t.Run("Неизвестная дата дает первый день", func(t *testing.T) {
		day := Day("1999-01-01")
		assert.Equal(t, "2025-08-24", day.Date)
		require.NotNil(t, day.OrphanedMedia)
	})

	t.Run("Source отдает файлы по путям экспорта", func(t *testing.T) {
		src := Source()
		p := parser.NewJsonParser()

		data, err := src.Fetch(context.Background(), "index.json")
		require.NoError(t, err)
		_, err = p.ParseIndex(data)
		require.NoError(t, err)

		for _, date := range Dates() {
			data, err := src.Fetch(context.Background(), "days/"+date+"/conversations.json")
			require.NoError(t, err)
			_, err = p.ParseDay(data)
			require.NoError(t, err, date)
		}
	})
}
