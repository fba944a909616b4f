package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/sarrafio/api/internal/infra/pgtestutil"
	"github.com/sarrafio/api/internal/repos/withdrawals"
)

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testAdminID = "99999999-9999-9999-9999-999999999999"
)

func seedUsers(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO users (id, phone) VALUES ($1, $2), ($3, $4)`,
		testUserID, "09123456789", testAdminID, "09999999999")
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func seedRequest(t *testing.T, db *sql.DB, id string, amount int64, status withdrawals.Status, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO withdraw_requests (id, user_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, testUserID, amount, status, createdAt)
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
}

func TestWithdrawals_CreateAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedUsers(t, db)

	repo := New(db)
	ctx := context.Background()

	req := &withdrawals.Request{
		ID:     "aaaaaaaa-0000-0000-0000-000000000001",
		UserID: testUserID,
		Amount: 30000,
		Status: withdrawals.StatusPending,
	}

	err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.CreatedAt.IsZero() {
		t.Fatal("create must backfill created_at")
	}

	got, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 30000 || got.Status != withdrawals.StatusPending {
		t.Fatalf("unexpected request: %+v", got)
	}

	_, err = repo.GetByID(ctx, "aaaaaaaa-0000-0000-0000-000000000009")
	if !errors.Is(err, withdrawals.ErrWithdrawNotFound) {
		t.Fatalf("expected ErrWithdrawNotFound, got %v", err)
	}
}

func TestWithdrawals_MarkApproved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  withdrawals.Status
		wantErr error
	}{
		{name: "pending_flips", status: withdrawals.StatusPending},
		{name: "approved_stays", status: withdrawals.StatusApproved, wantErr: withdrawals.ErrNotPending},
		{name: "rejected_stays", status: withdrawals.StatusRejected, wantErr: withdrawals.ErrNotPending},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			seedUsers(t, db)
			seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000001", 30000, tt.status, time.Now())

			repo := New(db)
			ctx := context.Background()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer tx.Rollback()

			err = repo.MarkApproved(tx, "aaaaaaaa-0000-0000-0000-000000000001", testAdminID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mark approved: %v", err)
			}
			if err := tx.Commit(); err != nil {
				t.Fatalf("commit: %v", err)
			}

			got, err := repo.GetByID(ctx, "aaaaaaaa-0000-0000-0000-000000000001")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != withdrawals.StatusApproved {
				t.Fatalf("expected approved, got %s", got.Status)
			}
			if got.ProcessedBy == nil || *got.ProcessedBy != testAdminID {
				t.Fatalf("processed_by not stamped: %+v", got)
			}
			if got.ProcessedAt == nil {
				t.Fatal("processed_at not stamped")
			}
		})
	}
}

func TestWithdrawals_MarkRejected(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedUsers(t, db)
	seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000001", 30000, withdrawals.StatusPending, time.Now())

	repo := New(db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	err = repo.MarkRejected(tx, "aaaaaaaa-0000-0000-0000-000000000001", testAdminID, "مدارک ناقص")
	if err != nil {
		t.Fatalf("mark rejected: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.GetByID(ctx, "aaaaaaaa-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != withdrawals.StatusRejected {
		t.Fatalf("expected rejected, got %s", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "مدارک ناقص" {
		t.Fatalf("rejection reason not stored: %+v", got)
	}

	// A second flip attempt must find nothing pending.
	tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()

	err = repo.MarkApproved(tx, "aaaaaaaa-0000-0000-0000-000000000001", testAdminID)
	if !errors.Is(err, withdrawals.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestWithdrawals_LockByID(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedUsers(t, db)
	seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000001", 30000, withdrawals.StatusPending, time.Now())

	repo := New(db)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()

	got, err := repo.LockByID(tx, "aaaaaaaa-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if got.Status != withdrawals.StatusPending {
		t.Fatalf("unexpected request: %+v", got)
	}

	_, err = repo.LockByID(tx, "aaaaaaaa-0000-0000-0000-000000000009")
	if !errors.Is(err, withdrawals.ErrWithdrawNotFound) {
		t.Fatalf("expected ErrWithdrawNotFound, got %v", err)
	}
}

func TestWithdrawals_ListAndStats(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedUsers(t, db)
	now := time.Now()
	seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000001", 100, withdrawals.StatusPending, now.Add(-3*time.Hour))
	seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000002", 200, withdrawals.StatusPending, now.Add(-2*time.Hour))
	seedRequest(t, db, "aaaaaaaa-0000-0000-0000-000000000003", 500, withdrawals.StatusApproved, now.Add(-time.Hour))

	repo := New(db)
	ctx := context.Background()

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(all))
	}
	if all[0].ID != "aaaaaaaa-0000-0000-0000-000000000003" {
		t.Fatalf("list must be newest first, got %s", all[0].ID)
	}

	pending, err := repo.List(ctx, withdrawals.StatusPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	byStatus := map[withdrawals.Status]withdrawals.StatusStats{}
	for _, s := range stats {
		byStatus[s.Status] = s
	}
	if byStatus[withdrawals.StatusPending].Count != 2 || byStatus[withdrawals.StatusPending].Total != 300 {
		t.Fatalf("unexpected pending stats: %+v", byStatus[withdrawals.StatusPending])
	}
	if byStatus[withdrawals.StatusApproved].Total != 500 {
		t.Fatalf("unexpected approved stats: %+v", byStatus[withdrawals.StatusApproved])
	}
}
