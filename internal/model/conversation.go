package model

import "time"

type Conversation struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Title               string     `gorm:"type:text;not null" json:"title"`
	Summary             string     `gorm:"type:text" json:"-"`
	SummaryMessageCount int        `gorm:"not null;default:0" json:"-"`
	SummaryUpdatedAt    *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	LastUpdated         time.Time  `gorm:"index" json:"last_updated"`
}

// ConversationSummary is a list row: the conversation plus its message count.
type ConversationSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	MessageCount int64     `json:"message_count"`
}

const titleMaxRunes = 50

// TitleFromMessage derives a conversation title from its first message:
// the first 50 characters followed by "..." when the message is longer.
func TitleFromMessage(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}
