package domain

import "fmt"

// MediaItem - элемент последовательности полноэкранного просмотрщика.
type MediaItem struct {
	Kind      MediaKind `json:"kind"`
	Path      string    `json:"path"`
	MessageID string    `json:"message_id"`
	Date      string    `json:"date"`
	Sender    string    `json:"sender"`
	MediaTag  string    `json:"media_type"`
}

// GallerySequence собирает изображения и видео переписки в порядке сообщений.
func GallerySequence(c *Conversation) []MediaItem {
	return collectMedia(c, KindImage, KindVideo)
}

// AllMediaSequence собирает изображения, видео и аудио переписки в порядке сообщений.
func AllMediaSequence(c *Conversation) []MediaItem {
	return collectMedia(c, KindImage, KindVideo, KindAudio)
}

func collectMedia(c *Conversation, kinds ...MediaKind) []MediaItem {
	allowed := make(map[MediaKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	var items []MediaItem
	for i, msg := range c.Messages {
		for _, ref := range msg.Media {
			if !allowed[ref.Kind] {
				continue
			}
			items = append(items, MediaItem{
				Kind:      ref.Kind,
				Path:      ref.Path,
				MessageID: fmt.Sprintf("msg-%d", i),
				Date:      msg.Created,
				Sender:    msg.From,
				MediaTag:  msg.MediaTag,
			})
		}
	}
	return items
}
