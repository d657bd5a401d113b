package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"animehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Create validates and inserts a subscription. The change log row is written
// by a database trigger, so every caller (and the anime cascade) feeds the
// sync loop the same way.
func (r *Repo) Create(ctx context.Context, sub models.Subscription) error {
	sub.Substring = strings.TrimSpace(sub.Substring)
	sub.PartitionKey = PartitionKey(sub.Substring)
	if sub.PartitionKey == "" {
		return ErrInvalidSubscription
	}

	var animeID any
	if sub.AnimeID != "" {
		animeID = sub.AnimeID
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO subscriptions (id, guild_id, channel_id, substring, anime_id, partition_key)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.GuildID, sub.ChannelID, sub.Substring, animeID, sub.PartitionKey)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE id = ?
	`, id)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) ListByGuild(ctx context.Context, guildID string) ([]models.Subscription, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, substring, anime_id, created_at
		FROM subscriptions
		WHERE guild_id = ?
		ORDER BY created_at DESC
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// ListAll returns every live subscription for the initial index load.
func (r *Repo) ListAll(ctx context.Context) ([]models.Subscription, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, substring, anime_id, created_at
		FROM subscriptions
	`)
	if err != nil {
		return nil, fmt.Errorf("list all subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// MaxChangeSeq returns the current tail of the change log, so the sync loop
// can start polling from the state ListAll observed.
func (r *Repo) MaxChangeSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM subscription_changes
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max change seq: %w", err)
	}
	return seq, nil
}

// ListChangesSince returns change-log entries with seq greater than the given
// value, oldest first.
func (r *Repo) ListChangesSince(ctx context.Context, seq int64) ([]models.SubscriptionChange, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT seq, op, subscription_id, guild_id, channel_id, substring, anime_id
		FROM subscription_changes
		WHERE seq > ?
		ORDER BY seq
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var out []models.SubscriptionChange
	for rows.Next() {
		var ch models.SubscriptionChange
		var animeID sql.NullString
		if err := rows.Scan(
			&ch.Seq, &ch.Op,
			&ch.Subscription.ID, &ch.Subscription.GuildID, &ch.Subscription.ChannelID,
			&ch.Subscription.Substring, &animeID,
		); err != nil {
			return nil, fmt.Errorf("scan change row: %w", err)
		}
		ch.Subscription.AnimeID = animeID.String
		ch.Subscription.PartitionKey = PartitionKey(ch.Subscription.Substring)
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanSubscriptions(rows *sql.Rows) ([]models.Subscription, error) {
	var out []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var animeID sql.NullString
		if err := rows.Scan(&sub.ID, &sub.GuildID, &sub.ChannelID, &sub.Substring, &animeID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		sub.AnimeID = animeID.String
		// Recompute rather than trust the stored value; keeps the partition
		// invariant self-healing across edits made outside this service.
		sub.PartitionKey = PartitionKey(sub.Substring)
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
