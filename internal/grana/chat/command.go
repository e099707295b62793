// Package chat implements the command interpreter behind the grana chat
// assistant: a fixed-prefix grammar over free text, a per-conversation
// pending-confirmation store, and a dispatcher that executes confirmed
// mutations against the ledger.
package chat

import "github.com/shopspring/decimal"

// Kind identifies the command a message was parsed into.
type Kind string

const (
	KindRecordExpense     Kind = "record_expense"
	KindRecordIncome      Kind = "record_income"
	KindQueryBalance      Kind = "query_balance"
	KindListRecent        Kind = "list_recent"
	KindEditTransaction   Kind = "edit_transaction"
	KindDeleteTransaction Kind = "delete_transaction"
	KindConfirm           Kind = "confirm"
	KindCancel            Kind = "cancel"
	KindUnrecognized      Kind = "unrecognized"
)

// Balance periods.
const (
	PeriodToday = "today"
	PeriodAll   = "all"
)

// Command is the typed result of parsing one inbound message. Only the
// fields relevant to Kind are populated.
type Command struct {
	Kind Kind

	// Amount is set for record_expense, record_income, and edit_transaction.
	Amount decimal.Decimal

	// Category is set for record_expense and record_income.
	Category string

	// PaymentMethod is set for record_expense.
	PaymentMethod string

	// Period is set for query_balance: PeriodToday or PeriodAll.
	Period string

	// TransactionID is set for edit_transaction and delete_transaction.
	TransactionID int64

	// Token is the confirmation code echoed back by the user on confirm.
	// Empty for a bare "sim".
	Token string
}
