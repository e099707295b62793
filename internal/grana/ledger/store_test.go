package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "grana.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, NewTransaction{
		Type:          TypeExpense,
		Amount:        decimal.RequireFromString("25.50"),
		Category:      "mercado",
		PaymentMethod: "pix",
		Description:   "mercado - pix",
		Date:          "2026-03-10",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("amount = %s, want 25.50", got.Amount)
	}
	if got.Type != TypeExpense || got.Category != "mercado" || got.PaymentMethod != "pix" || got.Date != "2026-03-10" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []NewTransaction{
		{Type: "transfer", Amount: decimal.NewFromInt(10), Category: "x", Date: "2026-03-10"},
		{Type: TypeExpense, Amount: decimal.Zero, Category: "x", Date: "2026-03-10"},
		{Type: TypeExpense, Amount: decimal.NewFromInt(-5), Category: "x", Date: "2026-03-10"},
		{Type: TypeExpense, Amount: decimal.NewFromInt(10), Category: "", Date: "2026-03-10"},
		{Type: TypeExpense, Amount: decimal.NewFromInt(10), Category: "x", Date: ""},
	}
	for i, tx := range cases {
		if _, err := s.CreateTransaction(ctx, tx); err == nil {
			t.Errorf("case %d: expected error for %+v", i, tx)
		}
	}
}

func TestUpdateTransactionAmount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, NewTransaction{
		Type: TypeExpense, Amount: decimal.NewFromInt(10),
		Category: "mercado", PaymentMethod: "pix", Date: "2026-03-01",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := s.UpdateTransactionAmount(ctx, created.ID, decimal.NewFromInt(50), "2026-03-10"); err != nil {
		t.Fatalf("UpdateTransactionAmount: %v", err)
	}

	got, err := s.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("amount = %s, want 50", got.Amount)
	}
	if got.Date != "2026-03-10" {
		t.Errorf("date = %q, want re-dated to 2026-03-10", got.Date)
	}

	err = s.UpdateTransactionAmount(ctx, 9999, decimal.NewFromInt(1), "2026-03-10")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("missing id: err = %v, want ErrTransactionNotFound", err)
	}
	err = s.UpdateTransactionAmount(ctx, created.ID, decimal.Zero, "2026-03-10")
	if err == nil {
		t.Error("zero amount: expected error")
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, NewTransaction{
		Type: TypeIncome, Amount: decimal.NewFromInt(100),
		Category: "Renda", PaymentMethod: "outro", Date: "2026-03-10",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("get after delete: err = %v, want ErrTransactionNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, created.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("double delete: err = %v, want ErrTransactionNotFound", err)
	}
}

func TestListTransactionsAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	txs, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty ledger, got %d", len(txs))
	}

	for i := 1; i <= 3; i++ {
		if _, err := s.CreateTransaction(ctx, NewTransaction{
			Type: TypeExpense, Amount: decimal.NewFromInt(int64(i)),
			Category: "mercado", PaymentMethod: "pix", Date: "2026-03-10",
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	txs, err = s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("len = %d, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].ID <= txs[i-1].ID {
			t.Errorf("ids not ascending: %d then %d", txs[i-1].ID, txs[i].ID)
		}
	}

	n, err := s.TransactionCount(ctx)
	if err != nil {
		t.Fatalf("TransactionCount: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestSetBudgetUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetBudget(ctx, "mercado", "2026-03", decimal.NewFromInt(500)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if err := s.SetBudget(ctx, "mercado", "2026-03", decimal.NewFromInt(600)); err != nil {
		t.Fatalf("SetBudget (replace): %v", err)
	}
	if err := s.SetBudget(ctx, "transporte", "2026-03", decimal.NewFromInt(200)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if err := s.SetBudget(ctx, "mercado", "2026-04", decimal.NewFromInt(550)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}

	budgets, err := s.ListBudgets(ctx, "2026-03")
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("len = %d, want 2", len(budgets))
	}
	if budgets[0].Category != "mercado" || !budgets[0].Limit.Equal(decimal.NewFromInt(600)) {
		t.Errorf("budgets[0] = %+v, want replaced mercado limit 600", budgets[0])
	}

	all, err := s.ListBudgets(ctx, "")
	if err != nil {
		t.Fatalf("ListBudgets(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all budgets = %d, want 3", len(all))
	}

	if err := s.SetBudget(ctx, "", "2026-03", decimal.NewFromInt(1)); err == nil {
		t.Error("empty category: expected error")
	}
	if err := s.SetBudget(ctx, "mercado", "2026-03", decimal.Zero); err == nil {
		t.Error("zero limit: expected error")
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteAudit(ctx, "t_abc", "room:alice", "chat.expense", "1", "success",
		AuditPayload{"amount": "25.50"}, "")
	if err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	err = s.WriteAudit(ctx, "t_def", "room:alice", "chat.delete", "", "error", nil, "disk full")
	if err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}

	entries, err := s.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Action != "chat.delete" {
		t.Errorf("entries[0].Action = %q, want chat.delete", entries[0].Action)
	}
	if !entries[0].ErrorMessage.Valid || entries[0].ErrorMessage.String != "disk full" {
		t.Errorf("error message = %+v", entries[0].ErrorMessage)
	}
	if entries[0].Target.Valid {
		t.Error("empty target should be NULL")
	}
	if entries[1].TraceID != "t_abc" || !entries[1].PayloadJSON.Valid {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grana.db")

	s1, err := New(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s1.CreateTransaction(context.Background(), NewTransaction{
		Type: TypeExpense, Amount: decimal.NewFromInt(10),
		Category: "mercado", PaymentMethod: "pix", Date: "2026-03-10",
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	s1.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	n, err := s2.TransactionCount(context.Background())
	if err != nil {
		t.Fatalf("TransactionCount: %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}
