package scans

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atelierhq/chipverify/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+scan_events\s*\(chip_id,\s*artwork_id,\s*state,\s*ip,\s*user_agent\)\s+VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s+RETURNING\s+id,\s*created_at\s*$`

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	chipID := "c-1"
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now)
	mock.ExpectQuery(insertQ).
		WithArgs("c-1", nil, "cloned", "203.0.113.9", "curl/8.0").
		WillReturnRows(rows)

	ev := &models.ScanEvent{
		ChipID:    &chipID,
		State:     models.ScanStateCloned,
		IP:        "203.0.113.9",
		UserAgent: "curl/8.0",
	}
	if err := repo.Create(context.Background(), ev); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if ev.ID != 42 {
		t.Fatalf("id not populated: %d", ev.ID)
	}
	if !ev.CreatedAt.Equal(now) {
		t.Fatalf("created_at not populated: %v", ev.CreatedAt)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.ScanEvent{State: models.ScanStateInvalid})
	if err == nil {
		t.Fatal("want error")
	}
}

const listQ = `(?s)^SELECT\s+id,\s*chip_id,\s*artwork_id,\s*state,\s*ip,\s*user_agent,\s*created_at\s+FROM\s+scan_events\s+WHERE\s+id\s*>\s*\$1\s+ORDER\s+BY\s+id\s+LIMIT\s+\$2\s*$`

func TestListAfter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "chip_id", "artwork_id", "state", "ip", "user_agent", "created_at"}).
		AddRow(int64(5), "c-1", nil, "authentic", "203.0.113.9", "curl/8.0", now).
		AddRow(int64(6), nil, "a-1", "invalid", "", "", now)
	mock.ExpectQuery(listQ).WithArgs(int64(4), 100).WillReturnRows(rows)

	got, err := repo.ListAfter(context.Background(), 4, 100)
	if err != nil {
		t.Fatalf("ListAfter error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 events, got %d", len(got))
	}
	if got[0].ID != 5 || got[0].State != models.ScanStateAuthentic || got[0].ChipID == nil || *got[0].ChipID != "c-1" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].ChipID != nil || got[1].ArtworkID == nil || *got[1].ArtworkID != "a-1" {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
}

func TestListAfter_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "chip_id", "artwork_id", "state", "ip", "user_agent", "created_at"})
	mock.ExpectQuery(listQ).WithArgs(int64(9), 100).WillReturnRows(rows)

	got, err := repo.ListAfter(context.Background(), 9, 100)
	if err != nil {
		t.Fatalf("ListAfter error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no events, got %d", len(got))
	}
}
