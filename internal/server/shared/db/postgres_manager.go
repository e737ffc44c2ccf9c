package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atelierhq/chipverify/internal/server/artworks"
	"github.com/atelierhq/chipverify/internal/server/chips"
	"github.com/atelierhq/chipverify/internal/server/links"
	"github.com/atelierhq/chipverify/internal/server/migrations"
	"github.com/atelierhq/chipverify/internal/server/scans"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	db       *sql.DB
	chips    chips.Repository
	links    links.Repository
	artworks artworks.Repository
	scans    scans.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Chips() chips.Repository {
	return m.chips
}

func (m *PostgresRepositoryManager) Links() links.Repository {
	return m.links
}

func (m *PostgresRepositoryManager) Artworks() artworks.Repository {
	return m.artworks
}

func (m *PostgresRepositoryManager) Scans() scans.Repository {
	return m.scans
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:       db,
		chips:    chips.NewPostgresRepository(db),
		links:    links.NewPostgresRepository(db),
		artworks: artworks.NewPostgresRepository(db),
		scans:    scans.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
