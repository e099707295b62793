package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// ErrTransactionNotFound is returned when the requested transaction id does
// not exist. Callers that must distinguish "missing" from other failures
// should check with errors.Is.
var ErrTransactionNotFound = errors.New("ledger: transaction not found")

// Transaction is a single income or expense record.
type Transaction struct {
	ID            int64
	Type          string
	Amount        decimal.Decimal
	Category      string
	PaymentMethod string
	Description   string
	// Date is the calendar day of the transaction as "YYYY-MM-DD".
	Date      string
	CreatedAt time.Time
}

// NewTransaction carries the fields needed to create a Transaction.
type NewTransaction struct {
	Type          string
	Amount        decimal.Decimal
	Category      string
	PaymentMethod string
	Description   string
	Date          string
}

// CreateTransaction inserts a new transaction and returns the stored record.
func (s *Store) CreateTransaction(ctx context.Context, tx NewTransaction) (*Transaction, error) {
	if tx.Type != TypeExpense && tx.Type != TypeIncome {
		return nil, fmt.Errorf("ledger: invalid transaction type %q", tx.Type)
	}
	if !tx.Amount.IsPositive() {
		return nil, fmt.Errorf("ledger: amount must be positive, got %s", tx.Amount)
	}
	if tx.Category == "" {
		return nil, fmt.Errorf("ledger: category is required")
	}
	if tx.Date == "" {
		return nil, fmt.Errorf("ledger: date is required")
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (type, amount, category, payment_method, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.Type, tx.Amount.String(), tx.Category, tx.PaymentMethod, tx.Description, tx.Date, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction id: %w", err)
	}

	return &Transaction{
		ID:            id,
		Type:          tx.Type,
		Amount:        tx.Amount,
		Category:      tx.Category,
		PaymentMethod: tx.PaymentMethod,
		Description:   tx.Description,
		Date:          tx.Date,
		CreatedAt:     now,
	}, nil
}

// GetTransaction retrieves a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, amount, category, payment_method, description, date, created_at
		FROM transactions
		WHERE id = ?
	`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransactionAmount sets a new amount on an existing transaction and
// re-dates it to the given day. Returns ErrTransactionNotFound when the id
// does not exist.
func (s *Store) UpdateTransactionAmount(ctx context.Context, id int64, amount decimal.Decimal, date string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("ledger: amount must be positive, got %s", amount)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET amount = ?, date = ? WHERE id = ?
	`, amount.String(), date, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
	}
	return nil
}

// DeleteTransaction removes a transaction by id. Returns
// ErrTransactionNotFound when the id does not exist.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
	}
	return nil
}

// ListTransactions returns all transactions in insertion order.
func (s *Store) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, category, payment_method, description, date, created_at
		FROM transactions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

// TransactionCount returns the total number of stored transactions.
func (s *Store) TransactionCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	t := &Transaction{}
	var amount string
	if err := row.Scan(
		&t.ID, &t.Type, &amount, &t.Category,
		&t.PaymentMethod, &t.Description, &t.Date, &t.CreatedAt,
	); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q is not a valid decimal: %w", amount, err)
	}
	t.Amount = d
	return t, nil
}
