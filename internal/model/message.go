package model

import "time"

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	Role           string    `gorm:"size:32;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is one {role, content} entry of an inbound or outbound history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SummaryTask asks a worker to summarize a conversation's full history.
type SummaryTask struct {
	ConversationID uint          `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
}
