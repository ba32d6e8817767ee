package domain

// DayActivity - активность одного дня архива.
type DayActivity struct {
	Date              string `json:"date"`
	MessageCount      int    `json:"message_count"`
	ConversationCount int    `json:"conversation_count"`
	// HasData ложно, если день не удалось загрузить из архива.
	HasData bool `json:"has_data"`
}

// Overview - сводка по всему архиву.
type Overview struct {
	TotalDays          int           `json:"total_days"`
	TotalConversations int           `json:"total_conversations"`
	TotalMessages      int           `json:"total_messages"`
	TotalMedia         int           `json:"total_media"`
	TotalImages        int           `json:"total_images"` // вместе со стикерами
	TotalVideos        int           `json:"total_videos"`
	TotalAudio         int           `json:"total_audio"`
	FirstDate          string        `json:"first_date"`
	LastDate           string        `json:"last_date"`
	MostActive         *DayActivity  `json:"most_active,omitempty"`
	Days               []DayActivity `json:"days"`
	Origin             Origin        `json:"origin"`
}
