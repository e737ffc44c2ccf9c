// Package db aggregates the per-aggregate repositories behind a single
// manager so the application wires storage once at startup.
package db

import (
	"context"
	"database/sql"

	"github.com/atelierhq/chipverify/internal/server/artworks"
	"github.com/atelierhq/chipverify/internal/server/chips"
	"github.com/atelierhq/chipverify/internal/server/links"
	"github.com/atelierhq/chipverify/internal/server/scans"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Chips() chips.Repository
	Links() links.Repository
	Artworks() artworks.Repository
	Scans() scans.Repository
}
