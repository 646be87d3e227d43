package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/platewise/internal/domain"
)

type Store struct {
	pool         *pgxpool.Pool
	tenants      *TenantRepo
	provisioning *ProvisioningRepo
	setupLinks   *SetupLinkRepo
	admins       *AdminRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:         pool,
		tenants:      NewTenantRepo(pool),
		provisioning: NewProvisioningRepo(pool),
		setupLinks:   NewSetupLinkRepo(pool),
		admins:       NewAdminRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository             { return s.tenants }
func (s *Store) Provisioning() domain.ProvisioningRepository  { return s.provisioning }
func (s *Store) SetupLinks() domain.SetupLinkRepository       { return s.setupLinks }
func (s *Store) Admins() domain.AdminRepository               { return s.admins }
