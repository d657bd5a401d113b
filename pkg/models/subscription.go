package models

import "time"

// Subscription is a guild channel's registered interest in release titles
// containing Substring. PartitionKey is derived from Substring and is always
// recomputed when rows are read back, so a stale stored value never leaks
// into the matching index.
type Subscription struct {
	ID           string    `json:"id"`
	GuildID      string    `json:"guild_id"`
	ChannelID    string    `json:"channel_id"`
	Substring    string    `json:"substring"`
	AnimeID      string    `json:"anime_id,omitempty"` // empty when not linked to metadata
	PartitionKey string    `json:"partition_key"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	ChangeCreate = "create"
	ChangeDelete = "delete"
)

// SubscriptionChange is one entry of the subscription change log, produced by
// database triggers for every insert and delete (including anime cascades).
type SubscriptionChange struct {
	Seq          int64        `json:"seq"`
	Op           string       `json:"op"`
	Subscription Subscription `json:"subscription"`
}
