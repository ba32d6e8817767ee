package palette

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFor(t *testing.T) {
	testCases := []struct {
		username       string
		conversationID string
		want           string
	}{
		{"friend_one", "mock_dm_friend_one", "#d742a2"},
		{"friend_two", "mock_group", "#d78542"},
		{"alice", "c1", "#d742ba"},
		{"bob", "g1", "#42d7c9"},
	}

	for _, tc := range testCases {
		t.Run(tc.username+"-"+tc.conversationID, func(t *testing.T) {
			assert.Equal(t, tc.want, ColorFor(tc.username, "mock_user", tc.conversationID).Hex())
		})
	}
}

func TestColorForSelf(t *testing.T) {
	for _, conv := range []string{"", "c1", "mock_group", "a very long conversation id"} {
		assert.Equal(t, Self, ColorFor("me", "me", conv))
	}
	assert.Equal(t, "#ff4757", Self.Hex())
}

func TestColorForWithoutViewer(t *testing.T) {
	assert.NotEqual(t, Self, ColorFor("", "", "c1"))
}

func TestColorForIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		user := fmt.Sprintf("user_%d", i)
		assert.Equal(t, ColorFor(user, "me", "c1"), ColorFor(user, "me", "c1"))
	}
}

func TestGeneratedColorsAvoidSelfBand(t *testing.T) {
	for i := int64(0); i < 5000; i++ {
		hue := Hue(i * 7919)
		require.GreaterOrEqual(t, hue, minHue)
		require.Less(t, hue, maxHue)
		require.NotEqual(t, Self, generate(i*7919))
	}
}

func TestHashIndex(t *testing.T) {
	assert.Equal(t, int64(0), hashIndex(""))
	assert.Equal(t, int64(97), hashIndex("a"))
	assert.Equal(t, int64(1906298290), hashIndex("friend_one-mock_dm_friend_one"))
	// Символ вне BMP считается двумя кодовыми единицами UTF-16
	assert.Equal(t, int64(1097486501), hashIndex("Ünïcödé-😀"))
}

func TestLighten(t *testing.T) {
	c := FromRGB(0xff, 0x47, 0x57)

	assert.Equal(t, c, c.Lighten(0))
	assert.Equal(t, FromRGB(255, 255, 255), c.Lighten(1))
	assert.Equal(t, FromRGB(255, 126, 137), c.Lighten(0.3))
	assert.Equal(t, FromRGB(255, 255, 255), c.Lighten(7))
}

func TestParseHexAndJSON(t *testing.T) {
	c, err := ParseHex("#42d7c9")
	require.NoError(t, err)
	assert.Equal(t, FromRGB(0x42, 0xd7, 0xc9), c)

	_, err = ParseHex("#42d7")
	assert.Error(t, err)
	_, err = ParseHex("zzzzzz")
	assert.Error(t, err)

	data, err := json.Marshal(map[string]Color{"me": Self})
	require.NoError(t, err)
	assert.JSONEq(t, `{"me": "#ff4757"}`, string(data))

	var back map[string]Color
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Self, back["me"])
}

func TestPalette(t *testing.T) {
	p := New("mock_user", "mock_group")
	assert.Equal(t, Self, p.For("mock_user"))
	assert.Equal(t, ColorFor("friend_two", "mock_user", "mock_group"), p.For("friend_two"))
}
