package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonParser(t *testing.T) {
	parser := NewJsonParser()

	t.Run("Разбор корректного индекса", func(t *testing.T) {
		testData := `{
			"account_owner": "mock_user",
			"users": [
				{"username": "alice", "display_name": "Alice A", "bitmoji": "bitmoji/alice.png"},
				{"username": "bob", "display_name": "Bob"}
			],
			"groups": [{"group_id": "g1", "name": "Friends", "members": ["alice", "bob"]}],
			"available_dates": ["2025-08-24"]
		}`

		index, err := parser.ParseIndex([]byte(testData))

		require.NoError(t, err)
		assert.Equal(t, "mock_user", index.AccountOwner)
		require.Len(t, index.Users, 2)
		assert.Equal(t, "Alice A", index.Users[0].DisplayName)
		assert.Equal(t, "bitmoji/alice.png", index.Users[0].Avatar)
		require.Len(t, index.Groups, 1)
		assert.Equal(t, []string{"alice", "bob"}, index.Groups[0].Members)
		assert.Equal(t, []string{"2025-08-24"}, index.AvailableDates)
	})

	t.Run("Разбор корректного дня", func(t *testing.T) {
		testData := `{
			"date": "2025-08-24",
			"stats": {"conversationCount": 1, "messageCount": 1, "mediaCount": 1},
			"conversations": [{
				"id": "g1",
				"conversation_id": "g1",
				"conversation_type": "group",
				"group_name": "Chat - Friends",
				"messages": [{
					"From": "alice",
					"Media Type": "MEDIA",
					"Created": "2025-08-24 10:00:00.000 UTC",
					"Content": "look",
					"IsSender": false,
					"media_locations": ["media/a.mp4"]
				}]
			}],
			"orphanedMedia": {
				"orphaned_media_count": 1,
				"orphaned_media": [{"path": "media/x.jpg", "filename": "x.jpg", "type": "IMAGE", "extension": "jpg"}]
			}
		}`

		day, err := parser.ParseDay([]byte(testData))

		require.NoError(t, err)
		assert.Equal(t, "2025-08-24", day.Date)
		require.Len(t, day.Conversations, 1)
		assert.True(t, day.Conversations[0].IsGroup())
		assert.Equal(t, []string{"media/a.mp4"}, day.Conversations[0].Messages[0].MediaLocations)
		require.NotNil(t, day.OrphanedMedia)
		assert.Equal(t, 1, day.OrphanedMedia.Count)
	})

	testCases := []struct {
		name  string
		index bool
		data  string
	}{
		{"Пустой индекс", true, ``},
		{"Индекс из пробелов", true, "  \n"},
		{"Некорректный JSON индекса", true, `{"users": [}`},
		{"Пустой список пользователей", true, `{"account_owner": "x", "users": []}`},
		{"Индекс без пользователей", true, `{"account_owner": "x"}`},
		{"Пустой день", false, ``},
		{"Некорректный JSON дня", false, `{"date": "2025-08-24", "conversations":}`},
		{"День без переписок", false, `{"date": "2025-08-24"}`},
		{"День с пустым списком переписок", false, `{"date": "2025-08-24", "conversations": []}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.index {
				index, parseErr := parser.ParseIndex([]byte(tc.data))
				assert.Nil(t, index)
				err = parseErr
			} else {
				_, err = parser.ParseDay([]byte(tc.data))
			}
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
