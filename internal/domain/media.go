package domain

import (
	"fmt"
	"path"
	"strings"
)

// MediaKind - закрытый набор классов содержимого сообщения.
type MediaKind int

const (
	KindText MediaKind = iota
	KindImage
	KindVideo
	KindAudio
	KindSticker
	KindShare
	KindLocation
	KindStatus
	KindOther
)

var kindNames = map[MediaKind]string{
	KindText:     "text",
	KindImage:    "image",
	KindVideo:    "video",
	KindAudio:    "audio",
	KindSticker:  "sticker",
	KindShare:    "share",
	KindLocation: "location",
	KindStatus:   "status",
	KindOther:    "other",
}

// String возвращает имя класса.
func (k MediaKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// MarshalText реализует encoding.TextMarshaler.
func (k MediaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (k *MediaKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown media kind %q", string(text))
}

// Теги экспорта, которые различает классификатор.
const (
	TagText         = "TEXT"
	TagImage        = "IMAGE"
	TagVideo        = "VIDEO"
	TagNote         = "NOTE"
	TagMedia        = "MEDIA"
	TagSticker      = "STICKER"
	TagShare        = "SHARE"
	TagSharedStory  = "SHARESAVEDSTORY"
	TagMapReaction  = "MAPREACTION"
	TagBotResponse  = "NONPARTICIPANTBOTRESPONSE"
	statusPrefix    = "STATUS"
	orphanTypeAudio = "AUDIO"
	orphanTypeVideo = "VIDEO"
	orphanTypeImage = "IMAGE"
)

var (
	imageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "heic": true}
	videoExtensions = map[string]bool{"mp4": true, "mov": true, "m4v": true, "webm": true}
	audioExtensions = map[string]bool{"mp3": true, "m4a": true, "aac": true, "wav": true, "ogg": true, "opus": true}
)

// IsStatusTag сообщает, является ли тег системным событием (скриншот, удаление, выход участника).
func IsStatusTag(tag string) bool {
	return strings.HasPrefix(tag, statusPrefix) || tag == TagBotResponse
}

// FileExtension возвращает расширение файла в нижнем регистре без точки.
func FileExtension(location string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(location)), ".")
}

// KindFromExtension классифицирует файл только по расширению.
func KindFromExtension(location string) MediaKind {
	ext := FileExtension(location)
	switch {
	case imageExtensions[ext]:
		return KindImage
	case videoExtensions[ext]:
		return KindVideo
	case audioExtensions[ext]:
		return KindAudio
	default:
		return KindOther
	}
}

// KindFromTag классифицирует сообщение по тегу экспорта.
// Тег MEDIA неоднозначен и здесь дает KindOther, см. ResolveKind.
func KindFromTag(tag string) MediaKind {
	if IsStatusTag(tag) {
		return KindStatus
	}
	switch tag {
	case TagText, "":
		return KindText
	case TagImage:
		return KindImage
	case TagVideo:
		return KindVideo
	case TagNote:
		return KindAudio
	case TagSticker:
		return KindSticker
	case TagShare, TagSharedStory:
		return KindShare
	case TagMapReaction:
		return KindLocation
	default:
		return KindOther
	}
}

// ResolveKind - единственное место, где тег MEDIA разрешается по расширению файла.
// Видео-расширения дают видео, остальное показывается как изображение.
func ResolveKind(tag, location string) MediaKind {
	if tag != TagMedia {
		return KindFromTag(tag)
	}
	if location == "" {
		return KindOther
	}
	switch KindFromExtension(location) {
	case KindVideo:
		return KindVideo
	case KindAudio:
		return KindAudio
	default:
		return KindImage
	}
}

// OrphanKind классифицирует осиротевший файл по его типу, а при неизвестном типе - по расширению.
func OrphanKind(typ, location string) MediaKind {
	switch strings.ToUpper(typ) {
	case orphanTypeImage:
		return KindImage
	case orphanTypeVideo:
		return KindVideo
	case orphanTypeAudio:
		return KindAudio
	default:
		return KindFromExtension(location)
	}
}
