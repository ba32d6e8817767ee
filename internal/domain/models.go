package domain

import "time"

// UnknownContactName - отображаемое имя участника, которого нет в индексе пользователей.
const UnknownContactName = "NOT FOUND IN FRIENDS LIST"

// RawMessage представляет одно сообщение в том виде, в котором оно лежит в экспорте.
type RawMessage struct {
	From              string   `json:"From"`
	MediaType         string   `json:"Media Type"`
	Created           string   `json:"Created"`
	Content           *string  `json:"Content"` // Может быть null
	ConversationTitle *string  `json:"Conversation Title"`
	IsSender          bool     `json:"IsSender"`
	IsSaved           bool     `json:"IsSaved"`
	MediaIDs          string   `json:"Media IDs"`
	Type              string   `json:"Type"`
	MediaLocations    []string `json:"media_locations,omitempty"`
	MatchedMedia      []string `json:"matched_media_files,omitempty"`
	IsGrouped         bool     `json:"is_grouped,omitempty"`
	MappingMethod     string   `json:"mapping_method,omitempty"`
}

// RawConversation представляет переписку за один день.
// Одна и та же переписка встречается в разных днях с одним и тем же ID.
type RawConversation struct {
	ID               string       `json:"id"`
	ConversationID   string       `json:"conversation_id"`
	ConversationType string       `json:"conversation_type"` // individual | group
	Messages         []RawMessage `json:"messages"`
	GroupName        string       `json:"group_name,omitempty"`
}

// IsGroup сообщает, является ли переписка групповой.
func (c *RawConversation) IsGroup() bool {
	return c.ConversationType == "group"
}

// RawDayStats - статистика, которую экспорт кладет в файл дня.
// Используется только для справки, нормализатор ее пересчитывает.
type RawDayStats struct {
	ConversationCount int `json:"conversationCount"`
	MessageCount      int `json:"messageCount"`
	MediaCount        int `json:"mediaCount"`
}

// RawOrphanedItem - медиафайл без сообщения-владельца.
type RawOrphanedItem struct {
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Type      string `json:"type"`
	Extension string `json:"extension"`
}

// RawOrphanedMedia - блок "осиротевших" медиафайлов дня.
type RawOrphanedMedia struct {
	Count int               `json:"orphaned_media_count"`
	Items []RawOrphanedItem `json:"orphaned_media"`
}

// RawDayBundle представляет корневую структуру файла дня.
type RawDayBundle struct {
	Date          string            `json:"date"`
	Stats         RawDayStats       `json:"stats"`
	Conversations []RawConversation `json:"conversations"`
	OrphanedMedia *RawOrphanedMedia `json:"orphanedMedia,omitempty"`
}

// IndexUser - запись глобального списка пользователей.
type IndexUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"bitmoji,omitempty"`
}

// IndexGroup - запись глобального списка групп.
type IndexGroup struct {
	GroupID string   `json:"group_id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// IndexData представляет глобальный индекс архива.
type IndexData struct {
	AccountOwner   string       `json:"account_owner"`
	Users          []IndexUser  `json:"users"`
	Groups         []IndexGroup `json:"groups"`
	AvailableDates []string     `json:"available_dates,omitempty"`
}

// Origin показывает, откуда взяты данные: из настоящего архива или из встроенного примера.
type Origin string

const (
	OriginArchive Origin = "archive"
	OriginSample  Origin = "sample"
)

// ConversationType - тип нормализованной переписки.
type ConversationType string

const (
	ConversationDM    ConversationType = "dm"
	ConversationGroup ConversationType = "group"
)

// Participant - участник переписки с разрешенным отображаемым именем.
type Participant struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// MediaRef - ссылка на медиафайл сообщения.
type MediaRef struct {
	Location string    `json:"location"` // Путь относительно каталога дня
	Path     string    `json:"path"`     // Полный путь для отображения
	Kind     MediaKind `json:"kind"`
	// ExtKind - классификация только по расширению, для сверки с Kind.
	ExtKind MediaKind `json:"ext_kind"`
}

// Message - нормализованное сообщение.
type Message struct {
	From        string     `json:"from_user"`
	IsSender    bool       `json:"is_sender"`
	Content     string     `json:"content"`
	Created     string     `json:"created"`
	Time        time.Time  `json:"time"`
	MediaTag    string     `json:"media_type"`
	MessageType string     `json:"message_type"`
	Kind        MediaKind  `json:"kind"`
	MediaIDs    string     `json:"media_ids,omitempty"`
	Media       []MediaRef `json:"media,omitempty"`
}

// HasMedia сообщает, есть ли у сообщения медиафайлы.
func (m *Message) HasMedia() bool {
	return len(m.Media) > 0
}

// ConversationStats - статистика, пересчитанная по отфильтрованным сообщениям.
type ConversationStats struct {
	MessageCount int    `json:"message_count"`
	FirstMessage string `json:"first_message"`
	LastMessage  string `json:"last_message"`
}

// Conversation - нормализованная переписка.
type Conversation struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         ConversationType  `json:"type"`
	Dir          string            `json:"dir"`
	Messages     []Message         `json:"messages"`
	Stats        ConversationStats `json:"stats"`
	Participants []Participant     `json:"participants"`
}

// NextChainedClip возвращает путь к следующему голосовому сообщению в цепочке:
// тот же отправитель, соседнее сообщение, тот же тип. Используется для автопроигрывания.
func (c *Conversation) NextChainedClip(index int) (string, bool) {
	if index < 0 || index+1 >= len(c.Messages) {
		return "", false
	}
	cur := c.Messages[index]
	next := c.Messages[index+1]
	if cur.Kind != KindAudio || next.Kind != KindAudio {
		return "", false
	}
	if next.From != cur.From || !next.HasMedia() {
		return "", false
	}
	return next.Media[0].Path, true
}

// OrphanedMediaItem - медиафайл дня без сообщения-владельца.
type OrphanedMediaItem struct {
	Path      string    `json:"path"`
	Filename  string    `json:"filename"`
	Kind      MediaKind `json:"kind"`
	Extension string    `json:"extension"`
}

// DayStats - статистика дня, посчитанная по оставшимся перепискам.
type DayStats struct {
	ConversationCount int `json:"conversation_count"`
	MessageCount      int `json:"message_count"`
	MediaCount        int `json:"media_count"`
}

// DayData - нормализованные данные одного дня.
type DayData struct {
	Date          string              `json:"date"`
	Conversations []Conversation      `json:"conversations"`
	OrphanedMedia []OrphanedMediaItem `json:"orphaned_media"`
	Stats         DayStats            `json:"stats"`
	Origin        Origin              `json:"origin"`
}

// Conversation ищет переписку дня по ID.
func (d *DayData) Conversation(id string) (*Conversation, bool) {
	for i := range d.Conversations {
		if d.Conversations[i].ID == id {
			return &d.Conversations[i], true
		}
	}
	return nil, false
}

// DayDir возвращает каталог дня, от которого отсчитываются пути медиафайлов.
func DayDir(date string) string {
	return "/days/" + date
}
