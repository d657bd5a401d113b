package anime

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

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Anime, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, canonical_title, query_title, image_url, created_at
		FROM anime
		WHERE id = ?
	`, id)

	var a models.Anime
	if err := row.Scan(&a.ID, &a.CanonicalTitle, &a.QueryTitle, &a.ImageURL, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &a, nil
}

// Upsert stores the anime, replacing titles and image for an existing ID.
func (r *Repo) Upsert(ctx context.Context, a models.Anime) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO anime (id, canonical_title, query_title, image_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			canonical_title = excluded.canonical_title,
			query_title = excluded.query_title,
			image_url = excluded.image_url
	`, a.ID, a.CanonicalTitle, a.QueryTitle, a.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert anime: %w", err)
	}
	return nil
}

// Search finds anime whose titles contain the keyword.
func (r *Repo) Search(ctx context.Context, q string, limit int) ([]models.Anime, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	kw := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, canonical_title, query_title, image_url, created_at
		FROM anime
		WHERE LOWER(canonical_title) LIKE ? OR LOWER(query_title) LIKE ?
		ORDER BY canonical_title ASC
		LIMIT ?
	`, kw, kw, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []models.Anime
	for rows.Next() {
		var a models.Anime
		if err := rows.Scan(&a.ID, &a.CanonicalTitle, &a.QueryTitle, &a.ImageURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Delete removes the anime. Linked subscriptions go with it through the
// foreign key cascade, and the change log records their removal.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM anime WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete anime: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
