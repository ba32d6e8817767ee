package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/ports"
)

const (
	groupTitlePrefix = "Chat - "
	unknownGroupName = "Unknown Group"
	unknownName      = "Unknown"
)

// ErrNilDay возвращается, если нормализатору передан пустой день.
var ErrNilDay = errors.New("nil day bundle")

// NormalizerImpl реализует интерфейс Normalizer.
type NormalizerImpl struct{}

// NewNormalizer создает новый экземпляр NormalizerImpl.
func NewNormalizer() ports.Normalizer {
	return &NormalizerImpl{}
}

// roster - справочники индекса для поиска имен и групп.
type roster struct {
	users       map[string]string
	groupByID   map[string]*domain.IndexGroup
	groupByName map[string]*domain.IndexGroup
}

func newRoster(index *domain.IndexData) *roster {
	r := &roster{
		users:       make(map[string]string, len(index.Users)),
		groupByID:   make(map[string]*domain.IndexGroup, len(index.Groups)),
		groupByName: make(map[string]*domain.IndexGroup, len(index.Groups)),
	}
	for _, u := range index.Users {
		r.users[u.Username] = u.DisplayName
	}
	for i := range index.Groups {
		g := &index.Groups[i]
		r.groupByID[g.GroupID] = g
		if g.Name != "" {
			r.groupByName[g.Name] = g
		}
	}
	return r
}

// displayName возвращает имя из индекса, а если его нет - сам username.
func (r *roster) displayName(username string) string {
	if name := r.users[username]; name != "" {
		return name
	}
	return username
}

func (r *roster) findGroup(rc *domain.RawConversation) *domain.IndexGroup {
	for _, id := range []string{rc.ConversationID, rc.ID} {
		if g, ok := r.groupByID[id]; ok && id != "" {
			return g
		}
	}
	for _, name := range []string{stripGroupPrefix(rc.GroupName), rc.GroupName} {
		if g, ok := r.groupByName[name]; ok && name != "" {
			return g
		}
	}
	return nil
}

// Normalize преобразует сырой день и индекс в нормализованный DayData.
// Статистика пересчитывается по оставшимся сообщениям, пустые переписки отбрасываются.
func (n *NormalizerImpl) Normalize(raw *domain.RawDayBundle, index *domain.IndexData) (*domain.DayData, error) {
	if raw == nil {
		return nil, ErrNilDay
	}
	if index == nil {
		index = &domain.IndexData{}
	}

	r := newRoster(index)
	day := &domain.DayData{
		Date:          raw.Date,
		Conversations: []domain.Conversation{},
		OrphanedMedia: []domain.OrphanedMediaItem{},
	}

	for _, rc := range mergeConversations(raw.Conversations) {
		conv := normalizeConversation(rc, r, index.AccountOwner, raw.Date)
		if len(conv.Messages) == 0 {
			continue
		}
		day.Conversations = append(day.Conversations, conv)
		day.Stats.MessageCount += len(conv.Messages)
		for _, msg := range conv.Messages {
			day.Stats.MediaCount += len(msg.Media)
		}
	}
	day.Stats.ConversationCount = len(day.Conversations)

	if raw.OrphanedMedia != nil {
		for _, item := range raw.OrphanedMedia.Items {
			day.OrphanedMedia = append(day.OrphanedMedia, domain.OrphanedMediaItem{
				Path:      mediaPath(raw.Date, item.Path),
				Filename:  item.Filename,
				Kind:      domain.OrphanKind(item.Type, item.Path),
				Extension: item.Extension,
			})
		}
	}

	return day, nil
}

// mergeConversations объединяет записи одной переписки, встретившиеся в дне несколько раз.
// Порядок переписок - по первому появлению. Сообщения объединенной переписки
// упорядочиваются по времени с сохранением исходного порядка при равенстве.
func mergeConversations(raws []domain.RawConversation) []*domain.RawConversation {
	var order []*domain.RawConversation
	byID := make(map[string]*domain.RawConversation, len(raws))
	merged := make(map[string]bool)

	for i := range raws {
		rc := raws[i]
		if rc.ID == "" {
			cp := rc
			order = append(order, &cp)
			continue
		}
		existing, ok := byID[rc.ID]
		if !ok {
			cp := rc
			cp.Messages = append([]domain.RawMessage(nil), rc.Messages...)
			byID[rc.ID] = &cp
			order = append(order, &cp)
			continue
		}
		existing.Messages = append(existing.Messages, rc.Messages...)
		if existing.GroupName == "" {
			existing.GroupName = rc.GroupName
		}
		merged[rc.ID] = true
	}

	for id := range merged {
		sortByTimestamp(byID[id].Messages)
	}
	return order
}

func sortByTimestamp(msgs []domain.RawMessage) {
	type entry struct {
		msg domain.RawMessage
		ts  time.Time
	}
	entries := make([]entry, len(msgs))
	for i := range msgs {
		ts, ok := domain.ParseTimestamp(msgs[i].Created)
		if !ok {
			// Без разборчивых меток порядок источника оставляем как есть
			return
		}
		entries[i] = entry{msg: msgs[i], ts: ts}
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].ts.Before(entries[b].ts) })
	for i := range entries {
		msgs[i] = entries[i].msg
	}
}

func normalizeConversation(rc *domain.RawConversation, r *roster, owner, date string) domain.Conversation {
	messages := make([]domain.Message, 0, len(rc.Messages))
	seen := make(map[string]bool, len(rc.Messages))

	for _, raw := range rc.Messages {
		// Системные события отбрасываются до любых подсчетов
		if domain.IsStatusTag(raw.MediaType) {
			continue
		}
		key := messageKey(&raw)
		if seen[key] {
			continue
		}
		seen[key] = true
		messages = append(messages, normalizeMessage(&raw, owner, date))
	}

	conv := domain.Conversation{
		ID:       rc.ID,
		Dir:      domain.DayDir(date),
		Messages: messages,
		Stats:    domain.ConversationStats{MessageCount: len(messages)},
	}
	if len(messages) > 0 {
		conv.Stats.FirstMessage = messages[0].Created
		conv.Stats.LastMessage = messages[len(messages)-1].Created
	}

	if rc.IsGroup() {
		conv.Type = domain.ConversationGroup
		group := r.findGroup(rc)
		conv.Participants = groupParticipants(group, messages, r)
		conv.Name = groupName(rc, group)
	} else {
		conv.Type = domain.ConversationDM
		p := domain.Participant{Username: rc.ConversationID, DisplayName: domain.UnknownContactName}
		if name := r.users[rc.ConversationID]; name != "" {
			p.DisplayName = name
		}
		conv.Participants = []domain.Participant{p}
		conv.Name = individualName(p)
	}

	return conv
}

func groupParticipants(group *domain.IndexGroup, messages []domain.Message, r *roster) []domain.Participant {
	if group != nil {
		participants := make([]domain.Participant, 0, len(group.Members))
		for _, username := range group.Members {
			participants = append(participants, domain.Participant{Username: username, DisplayName: r.displayName(username)})
		}
		return participants
	}

	// Группы нет в индексе: участники - уникальные авторы оставшихся сообщений
	var participants []domain.Participant
	seen := make(map[string]bool)
	for _, msg := range messages {
		if msg.From == "" || seen[msg.From] {
			continue
		}
		seen[msg.From] = true
		participants = append(participants, domain.Participant{Username: msg.From, DisplayName: r.displayName(msg.From)})
	}
	return participants
}

func groupName(rc *domain.RawConversation, group *domain.IndexGroup) string {
	if name := stripGroupPrefix(rc.GroupName); name != "" {
		return name
	}
	if group != nil && group.Name != "" {
		return group.Name
	}
	return unknownGroupName
}

func individualName(p domain.Participant) string {
	name := p.DisplayName
	if name == domain.UnknownContactName || name == "" {
		name = p.Username
	}
	if name == "" {
		return unknownName
	}
	return name
}

func stripGroupPrefix(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, groupTitlePrefix))
}

func normalizeMessage(raw *domain.RawMessage, owner, date string) domain.Message {
	msg := domain.Message{
		From:        raw.From,
		IsSender:    raw.IsSender || (owner != "" && raw.From == owner),
		Created:     raw.Created,
		MediaTag:    raw.MediaType,
		MessageType: raw.Type,
		MediaIDs:    raw.MediaIDs,
	}
	if raw.Content != nil {
		msg.Content = *raw.Content
	}
	if ts, ok := domain.ParseTimestamp(raw.Created); ok {
		msg.Time = ts
	}

	locations := raw.MediaLocations
	if len(locations) == 0 {
		locations = raw.MatchedMedia
	}

	first := ""
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if first == "" {
			first = loc
		}
		msg.Media = append(msg.Media, domain.MediaRef{
			Location: loc,
			Path:     mediaPath(date, loc),
			Kind:     domain.ResolveKind(raw.MediaType, loc),
			ExtKind:  domain.KindFromExtension(loc),
		})
	}
	msg.Kind = domain.ResolveKind(raw.MediaType, first)

	return msg
}

func messageKey(m *domain.RawMessage) string {
	content := ""
	if m.Content != nil {
		content = *m.Content
	}
	return strings.Join([]string{
		m.From, m.Created, m.MediaType, m.Type, content, m.MediaIDs,
		strings.Join(m.MediaLocations, "\x1f"),
	}, "\x00")
}

func mediaPath(date, location string) string {
	return domain.DayDir(date) + "/" + strings.TrimLeft(location, "/")
}
