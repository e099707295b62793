package chat

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Default categories applied when the user omits one.
const (
	DefaultExpenseCategory = "Outros"
	DefaultIncomeCategory  = "Renda"
)

// parseRule pairs a verb predicate with an argument extractor. Rules are
// evaluated in priority order; the first rule whose predicate claims the
// message consumes it. A claimed message whose arguments do not extract is
// demoted to unrecognized; it never falls through to a later rule.
type parseRule struct {
	claims  func(fields []string) bool
	extract func(fields []string, text string) (Command, bool)
}

var parseRules = []parseRule{
	{verb("listar"), extractList},
	{verb("deletar"), extractDelete},
	{verb("editar"), extractEdit},
	{verb("confirmar", "sim"), extractConfirm},
	{verb("cancelar", "não", "nao"), extractCancel},
	{verb("saldo"), extractBalance},
	{verb("gasto"), extractExpense},
	{verb("entrada"), extractIncome},
}

// Parse converts one line of free text into a Command. It never fails:
// malformed or unknown input yields KindUnrecognized. Matching is
// case-insensitive with surrounding whitespace ignored.
func Parse(raw string) Command {
	text := strings.ToLower(strings.TrimSpace(raw))
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{Kind: KindUnrecognized}
	}

	for _, rule := range parseRules {
		if !rule.claims(fields) {
			continue
		}
		if cmd, ok := rule.extract(fields, text); ok {
			return cmd
		}
		break
	}
	return Command{Kind: KindUnrecognized}
}

// verb returns a predicate matching the first whitespace token against any
// of the given verbs.
func verb(verbs ...string) func([]string) bool {
	return func(fields []string) bool {
		for _, v := range verbs {
			if fields[0] == v {
				return true
			}
		}
		return false
	}
}

func extractList(_ []string, _ string) (Command, bool) {
	return Command{Kind: KindListRecent}, true
}

func extractDelete(fields []string, _ string) (Command, bool) {
	if len(fields) < 2 {
		return Command{}, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindDeleteTransaction, TransactionID: id}, true
}

func extractEdit(fields []string, _ string) (Command, bool) {
	if len(fields) < 3 {
		return Command{}, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Command{}, false
	}
	amount, err := decimal.NewFromString(fields[2])
	if err != nil {
		return Command{}, false
	}
	return Command{Kind: KindEditTransaction, TransactionID: id, Amount: amount}, true
}

func extractConfirm(fields []string, _ string) (Command, bool) {
	token := ""
	if len(fields) > 1 {
		token = fields[1]
	}
	return Command{Kind: KindConfirm, Token: token}, true
}

func extractCancel(_ []string, _ string) (Command, bool) {
	return Command{Kind: KindCancel}, true
}

func extractBalance(_ []string, text string) (Command, bool) {
	period := PeriodAll
	if strings.Contains(text, "hoje") {
		period = PeriodToday
	}
	return Command{Kind: KindQueryBalance, Period: period}, true
}

// extractExpense parses "gasto <amount> [category words...] <method>". The
// last token is the payment method and everything between amount and method
// joins into the category. With a single token the amount doubles as the
// method and the category falls back to the default.
func extractExpense(fields []string, _ string) (Command, bool) {
	rest := fields[1:]
	if len(rest) == 0 {
		return Command{}, false
	}
	amount, err := decimal.NewFromString(rest[0])
	if err != nil {
		return Command{}, false
	}

	method := rest[len(rest)-1]
	category := strings.Join(rest[1:max(len(rest)-1, 1)], " ")
	if category == "" {
		category = DefaultExpenseCategory
	}
	return Command{
		Kind:          KindRecordExpense,
		Amount:        amount,
		Category:      category,
		PaymentMethod: method,
	}, true
}

// extractIncome parses "entrada <amount> [category words...]".
func extractIncome(fields []string, _ string) (Command, bool) {
	rest := fields[1:]
	if len(rest) == 0 {
		return Command{}, false
	}
	amount, err := decimal.NewFromString(rest[0])
	if err != nil {
		return Command{}, false
	}

	category := strings.Join(rest[1:], " ")
	if category == "" {
		category = DefaultIncomeCategory
	}
	return Command{
		Kind:     KindRecordIncome,
		Amount:   amount,
		Category: category,
	}, true
}
