package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmartins/grana/common/trace"
	"github.com/rmartins/grana/internal/grana/ledger"
)

// Ledger is the slice of the persistent store the dispatcher consumes.
// *ledger.Store satisfies it; tests substitute a fake.
type Ledger interface {
	CreateTransaction(ctx context.Context, tx ledger.NewTransaction) (*ledger.Transaction, error)
	UpdateTransactionAmount(ctx context.Context, id int64, amount decimal.Decimal, date string) error
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
	ListBudgets(ctx context.Context, month string) ([]ledger.Budget, error)
	WriteAudit(ctx context.Context, traceID, actor, action, target, result string, payload ledger.AuditPayload, errorMsg string) error
}

// Budget alert thresholds, as fractions of the monthly limit.
var budgetWarnFraction = decimal.NewFromFloat(0.8)

// Config holds the dispatcher's dependencies and knobs.
type Config struct {
	Ledger  Ledger
	Pending PendingStore

	// ConfirmTTL is the confirmation window. Zero means DefaultConfirmTTL.
	ConfirmTTL time.Duration

	// StrictTokens requires the confirmation code typed by the user to
	// match the issued one. When false (the default), any "confirmar"
	// or bare "sim" confirms the staged action.
	StrictTokens bool

	// Now overrides the clock (for testing). Nil means time.Now.
	Now func() time.Time
}

// Dispatcher owns the per-conversation confirmation state machine. Each
// conversation is either idle or holds exactly one staged mutation; staged
// mutations execute only on an explicit confirm inside the TTL window.
type Dispatcher struct {
	ledger  Ledger
	pending PendingStore
	ttl     time.Duration
	strict  bool
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher from cfg. Ledger and Pending are
// required.
func NewDispatcher(cfg Config) *Dispatcher {
	ttl := cfg.ConfirmTTL
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		ledger:  cfg.Ledger,
		pending: cfg.Pending,
		ttl:     ttl,
		strict:  cfg.StrictTokens,
		now:     now,
	}
}

// ProcessMessage handles one inbound message for the given conversation key
// and returns the reply text. It never returns an error: every failure is
// converted to a user-visible reply and logged.
func (d *Dispatcher) ProcessMessage(ctx context.Context, key, raw string) string {
	cmd := Parse(raw)

	switch cmd.Kind {
	case KindListRecent:
		return d.listRecent(ctx)
	case KindQueryBalance:
		return d.balance(ctx, cmd.Period)
	case KindRecordExpense:
		return d.stageExpense(ctx, key, cmd)
	case KindRecordIncome:
		return d.stageIncome(ctx, key, cmd)
	case KindEditTransaction:
		return d.stageEdit(ctx, key, cmd)
	case KindDeleteTransaction:
		return d.stageDelete(ctx, key, cmd)
	case KindConfirm:
		return d.confirm(ctx, key, cmd)
	case KindCancel:
		return d.cancel(ctx, key)
	default:
		return helpText
	}
}

// stageExpense stages an expense for confirmation, replacing any action
// already staged for this conversation.
func (d *Dispatcher) stageExpense(ctx context.Context, key string, cmd Command) string {
	if !cmd.Amount.IsPositive() {
		return expenseUsageText
	}

	action := PendingAction{
		Kind:          PendingExpense,
		Amount:        cmd.Amount,
		Category:      cmd.Category,
		PaymentMethod: cmd.PaymentMethod,
		Description:   cmd.Category + " - " + cmd.PaymentMethod,
		Token:         newToken(),
		CreatedAt:     d.now(),
	}
	d.pending.Set(key, action)
	d.audit(ctx, key, "chat.expense.stage", "", "staged", ledger.AuditPayload{
		"amount": money(cmd.Amount), "category": cmd.Category,
	}, "")
	return formatExpensePrompt(action.Amount, action.Category, action.PaymentMethod, action.Token)
}

func (d *Dispatcher) stageIncome(ctx context.Context, key string, cmd Command) string {
	if !cmd.Amount.IsPositive() {
		return incomeUsageText
	}

	action := PendingAction{
		Kind:        PendingIncome,
		Amount:      cmd.Amount,
		Category:    cmd.Category,
		Description: cmd.Category,
		Token:       newToken(),
		CreatedAt:   d.now(),
	}
	d.pending.Set(key, action)
	d.audit(ctx, key, "chat.income.stage", "", "staged", ledger.AuditPayload{
		"amount": money(cmd.Amount), "category": cmd.Category,
	}, "")
	return formatIncomePrompt(action.Amount, action.Category, action.Token)
}

func (d *Dispatcher) stageEdit(ctx context.Context, key string, cmd Command) string {
	if cmd.TransactionID <= 0 || !cmd.Amount.IsPositive() {
		return editUsageText
	}

	action := PendingAction{
		Kind:          PendingEdit,
		Amount:        cmd.Amount,
		TransactionID: cmd.TransactionID,
		Token:         newToken(),
		CreatedAt:     d.now(),
	}
	d.pending.Set(key, action)
	d.audit(ctx, key, "chat.edit.stage", fmt.Sprint(cmd.TransactionID), "staged", nil, "")
	return formatEditPrompt(action.TransactionID, action.Amount, action.Token)
}

func (d *Dispatcher) stageDelete(ctx context.Context, key string, cmd Command) string {
	if cmd.TransactionID <= 0 {
		return deleteUsageText
	}

	action := PendingAction{
		Kind:          PendingDelete,
		TransactionID: cmd.TransactionID,
		Token:         newToken(),
		CreatedAt:     d.now(),
	}
	d.pending.Set(key, action)
	d.audit(ctx, key, "chat.delete.stage", fmt.Sprint(cmd.TransactionID), "staged", nil, "")
	return formatDeletePrompt(action.TransactionID, action.Token)
}

// confirm executes the staged action for this conversation, if one exists
// and is still inside the confirmation window.
//
// The mutation and the pending-store removal are not atomic: a crash between
// the two leaves the staged action in place and a repeat confirm would
// re-execute it. Accepted at-least-once behaviour for an in-process store.
func (d *Dispatcher) confirm(ctx context.Context, key string, cmd Command) string {
	action, ok := d.pending.Get(key)
	if !ok {
		return noPendingText
	}
	if action.ExpiredAt(d.now(), d.ttl) {
		d.pending.Delete(key)
		return expiredText
	}
	if d.strict && !strings.EqualFold(cmd.Token, action.Token) {
		return tokenMismatchText
	}

	today := d.now().Format("2006-01-02")

	switch action.Kind {
	case PendingDelete:
		if err := d.ledger.DeleteTransaction(ctx, action.TransactionID); err != nil {
			return d.confirmFailed(ctx, key, "chat.delete", fmt.Sprint(action.TransactionID), err)
		}
		d.pending.Delete(key)
		d.audit(ctx, key, "chat.delete", fmt.Sprint(action.TransactionID), "success", nil, "")
		return formatDeleted(action.TransactionID)

	case PendingEdit:
		if err := d.ledger.UpdateTransactionAmount(ctx, action.TransactionID, action.Amount, today); err != nil {
			return d.confirmFailed(ctx, key, "chat.edit", fmt.Sprint(action.TransactionID), err)
		}
		d.pending.Delete(key)
		d.audit(ctx, key, "chat.edit", fmt.Sprint(action.TransactionID), "success", ledger.AuditPayload{
			"amount": money(action.Amount),
		}, "")
		return formatUpdated(action.TransactionID, action.Amount)

	case PendingExpense, PendingIncome:
		txType := ledger.TypeExpense
		if action.Kind == PendingIncome {
			txType = ledger.TypeIncome
		}
		method := action.PaymentMethod
		if method == "" {
			method = "outro"
		}

		created, err := d.ledger.CreateTransaction(ctx, ledger.NewTransaction{
			Type:          txType,
			Amount:        action.Amount,
			Category:      action.Category,
			PaymentMethod: method,
			Description:   action.Description,
			Date:          today,
		})
		if err != nil {
			return d.confirmFailed(ctx, key, "chat."+string(action.Kind), "", err)
		}
		d.pending.Delete(key)
		d.audit(ctx, key, "chat."+string(action.Kind), fmt.Sprint(created.ID), "success", ledger.AuditPayload{
			"amount": money(action.Amount), "category": action.Category,
		}, "")

		reply := formatRecorded(action.Kind, action.Amount)
		if alert := d.budgetAlert(ctx, action.Category); alert != "" {
			reply += "\n\n" + alert
		}
		return reply
	}

	// Unknown staged kind would be a programming error; clear it rather
	// than wedging the conversation.
	d.pending.Delete(key)
	slog.Error("unknown pending action kind", "kind", action.Kind, "key", key)
	return confirmFailedText
}

// confirmFailed clears the staged action after a failed mutation so the user
// re-issues the original command instead of retrying a half-known state.
func (d *Dispatcher) confirmFailed(ctx context.Context, key, action, target string, err error) string {
	d.pending.Delete(key)
	slog.Error("confirmation failed", "action", action, "key", key, "err", err)
	d.audit(ctx, key, action, target, "error", nil, err.Error())
	return confirmFailedText
}

func (d *Dispatcher) cancel(ctx context.Context, key string) string {
	if _, ok := d.pending.Get(key); !ok {
		return nothingToCancelText
	}
	d.pending.Delete(key)
	d.audit(ctx, key, "chat.cancel", "", "success", nil, "")
	return cancelledText
}

// balance sums all transactions, optionally restricted to today's calendar
// date (exact date match, not a range).
func (d *Dispatcher) balance(ctx context.Context, period string) string {
	txs, err := d.ledger.ListTransactions(ctx)
	if err != nil {
		slog.Error("balance: list transactions", "err", err)
		return genericErrorText
	}

	today := d.now().Format("2006-01-02")
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if period == PeriodToday && t.Date != today {
			continue
		}
		if t.Type == ledger.TypeIncome {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}
	}
	return formatBalance(period, income, expense)
}

func (d *Dispatcher) listRecent(ctx context.Context) string {
	txs, err := d.ledger.ListTransactions(ctx)
	if err != nil {
		slog.Error("listRecent: list transactions", "err", err)
		return genericErrorText
	}
	return formatRecent(txs)
}

// budgetAlert checks the current-month expense spend in category against
// that category's budget. Returns "" when no budget row exists, when the
// spend is below 80% of the limit, or when the check itself fails (the
// recorded transaction must not look failed because the alert did).
func (d *Dispatcher) budgetAlert(ctx context.Context, category string) string {
	month := d.now().Format("2006-01")

	budgets, err := d.ledger.ListBudgets(ctx, month)
	if err != nil {
		slog.Warn("budget alert: list budgets", "err", err)
		return ""
	}
	var limit decimal.Decimal
	found := false
	for _, b := range budgets {
		if b.Category == category {
			limit = b.Limit
			found = true
			break
		}
	}
	if !found || !limit.IsPositive() {
		return ""
	}

	txs, err := d.ledger.ListTransactions(ctx)
	if err != nil {
		slog.Warn("budget alert: list transactions", "err", err)
		return ""
	}
	spent := decimal.Zero
	for _, t := range txs {
		if t.Type == ledger.TypeExpense && t.Category == category && strings.HasPrefix(t.Date, month) {
			spent = spent.Add(t.Amount)
		}
	}

	switch {
	case spent.GreaterThanOrEqual(limit):
		return formatBudgetExceeded(category, limit, spent)
	case spent.GreaterThanOrEqual(limit.Mul(budgetWarnFraction)):
		return formatBudgetWarning(category, limit, spent)
	}
	return ""
}

// audit records the outcome of a command; audit failures are logged and
// never surfaced to the user.
func (d *Dispatcher) audit(ctx context.Context, actor, action, target, result string, payload ledger.AuditPayload, errorMsg string) {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		traceID = trace.GenerateID()
	}
	if err := d.ledger.WriteAudit(ctx, traceID, actor, action, target, result, payload, errorMsg); err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
