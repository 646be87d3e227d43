package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/platewise/internal/domain"
)

type SetupLinkRepo struct {
	pool *pgxpool.Pool
}

func NewSetupLinkRepo(pool *pgxpool.Pool) *SetupLinkRepo {
	return &SetupLinkRepo{pool: pool}
}

func (r *SetupLinkRepo) Create(ctx context.Context, link *domain.SetupLink) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO setup_links
		   (token, tenant_id, email, expires_at, used, created_by, created_at)
		 VALUES ($1, $2, $3, $4, false, $5, $6)`,
		link.Token, link.TenantID, link.Email, link.ExpiresAt, link.CreatedBy, link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("setupLinkRepo.Create: %w", classifyUnique(err))
	}
	return nil
}

func (r *SetupLinkRepo) GetByToken(ctx context.Context, token string) (*domain.SetupLink, error) {
	var l domain.SetupLink

	err := r.pool.QueryRow(ctx,
		`SELECT token, tenant_id, email, expires_at, used, used_at, created_by, created_at
		 FROM setup_links WHERE token = $1`,
		token,
	).Scan(&l.Token, &l.TenantID, &l.Email, &l.ExpiresAt, &l.Used, &l.UsedAt, &l.CreatedBy, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("setupLinkRepo.GetByToken: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("setupLinkRepo.GetByToken: %w", err)
	}

	return &l, nil
}

// Consume flips used=false to used=true with a conditional update, so two
// concurrent consume attempts on the same token cannot both win: the loser
// sees RowsAffected()==0 and gets false.
func (r *SetupLinkRepo) Consume(ctx context.Context, token string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE setup_links SET used = true, used_at = $1
		 WHERE token = $2 AND used = false`,
		at, token,
	)
	if err != nil {
		return false, fmt.Errorf("setupLinkRepo.Consume: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
