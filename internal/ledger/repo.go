package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"animehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// AddToBalance credits (or debits, with a negative amount) the user's balance
// and returns the new total. Missing rows start from zero.
func (r *Repo) AddToBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO balances (user_id, balance)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET balance = balance + excluded.balance
		RETURNING balance
	`, userID, amount)

	var balance int64
	if err := row.Scan(&balance); err != nil {
		return 0, fmt.Errorf("add to balance: %w", err)
	}
	return balance, nil
}

func (r *Repo) GetBalance(ctx context.Context, userID string) (models.UserBalance, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, balance FROM balances WHERE user_id = ?
	`, userID)

	var b models.UserBalance
	if err := row.Scan(&b.UserID, &b.Balance); err != nil {
		if err == sql.ErrNoRows {
			return models.UserBalance{UserID: userID}, nil
		}
		return models.UserBalance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// Top returns the highest balances, for leaderboard display.
func (r *Repo) Top(ctx context.Context, limit int) ([]models.UserBalance, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, balance FROM balances ORDER BY balance DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top query: %w", err)
	}
	defer rows.Close()

	var out []models.UserBalance
	for rows.Next() {
		var b models.UserBalance
		if err := rows.Scan(&b.UserID, &b.Balance); err != nil {
			return nil, fmt.Errorf("top scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
