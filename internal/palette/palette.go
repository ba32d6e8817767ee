// Package palette назначает отправителям детерминированные цвета.
package palette

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// Color - цвет, упакованный в 0xRRGGBB.
type Color uint32

// Self - зарезервированный цвет владельца аккаунта. Его оттенок лежит в полосе [0, 20),
// которую генератор никогда не выдает.
const Self Color = 0xff4757

const (
	goldenAngle = 137.508
	minHue      = 20.0
	maxHue      = 340.0
	saturation  = 0.65
	lightness   = 0.55
)

// ColorFor возвращает цвет отправителя username в переписке conversationID
// с точки зрения зрителя viewer. Пустой viewer означает, что владелец неизвестен.
func ColorFor(username, viewer, conversationID string) Color {
	if viewer != "" && username == viewer {
		return Self
	}
	return generate(hashIndex(username + "-" + conversationID))
}

// Hue возвращает оттенок в градусах, который генератор дает для индекса.
func Hue(index int64) float64 {
	return math.Mod(float64(index)*goldenAngle, maxHue-minHue) + minHue
}

func generate(index int64) Color {
	r, g, b := colorful.Hsl(Hue(index), saturation, lightness).RGB255()
	return FromRGB(r, g, b)
}

// hashIndex считает скользящий хеш h = h*31 + c по кодовым единицам UTF-16
// в 32-битной арифметике с переполнением и возвращает его модуль.
func hashIndex(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	idx := int64(h)
	if idx < 0 {
		idx = -idx
	}
	return idx
}

// FromRGB упаковывает компоненты в Color.
func FromRGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB возвращает компоненты цвета.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex возвращает цвет в виде "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c Color) String() string {
	return c.Hex()
}

// MarshalText реализует encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHex разбирает цвет вида "#rrggbb" или "rrggbb".
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Lighten смешивает цвет с белым. amount ограничивается диапазоном [0, 1].
func (c Color) Lighten(amount float64) Color {
	amount = math.Max(0, math.Min(1, amount))
	mix := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) + (255-float64(v))*amount))
	}
	r, g, b := c.RGB()
	return FromRGB(mix(r), mix(g), mix(b))
}

// Palette связывает зрителя и переписку, чтобы не передавать их в каждый вызов.
type Palette struct {
	Viewer         string
	ConversationID string
}

// New создает палитру для переписки.
func New(viewer, conversationID string) Palette {
	return Palette{Viewer: viewer, ConversationID: conversationID}
}

// For возвращает цвет отправителя.
func (p Palette) For(username string) Color {
	return ColorFor(username, p.Viewer, p.ConversationID)
}
