package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/dbutil"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
)

type TicketRepo struct {
	db *sqlx.DB
}

func NewTicketRepo(db *sqlx.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("tickets",
		where, []string{"id", "category", "description", "status", "created_at::text", "COALESCE(resolved_at::text, '')"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var t model.Ticket
	if err := row.Scan(&t.ID, &t.Category, &t.Description, &t.Status, &t.CreatedAt, &t.ResolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
