// Package queue defines the message payloads exchanged over the broker and
// the background workers that consume them. Publishing is fire-and-forget
// from the request path: errors are logged and returned so callers can
// ignore them without interrupting the primary action.
package queue

import "time"

// Queue names. Both queues are declared durable and messages are persistent.
const (
	TranslationWarmQueue = "translation.warm"
	ActivityQueue        = "activity.logged"
)

// TranslationWarmEvent asks the background worker to pre-translate a set of
// texts. Published when equipment or category names change so the catalog
// shows up translated before anyone requests it.
type TranslationWarmEvent struct {
	Texts       []string  `json:"texts"`
	TargetLang  string    `json:"target_lang"`
	RequestedAt time.Time `json:"requested_at"`
}

// ActivityEvent mirrors one activity_log row. Consumers can feed dashboards
// or real-time channels without querying the primary database.
type ActivityEvent struct {
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	EntityType string    `json:"entity_type"`
	EntityID   uint64    `json:"entity_id"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}
