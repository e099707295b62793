package chat

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseExpense(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		amount   string
		category string
		method   string
	}{
		{"full form", "gasto 25 mercado pix", "25", "mercado", "pix"},
		{"multi word category", "gasto 25.50 padaria do zé débito", "25.5", "padaria do zé", "débito"},
		{"decimal amount", "gasto 12.99 farmácia pix", "12.99", "farmácia", "pix"},
		{"uppercase and padding", "  GASTO 40 Uber PIX  ", "40", "uber", "pix"},
		{"amount and method only", "gasto 30 pix", "30", "Outros", "pix"},
		{"single token doubles as method", "gasto 25", "25", "Outros", "25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.input)
			if cmd.Kind != KindRecordExpense {
				t.Fatalf("kind = %q, want %q", cmd.Kind, KindRecordExpense)
			}
			if want, _ := decimal.NewFromString(tt.amount); !cmd.Amount.Equal(want) {
				t.Errorf("amount = %s, want %s", cmd.Amount, want)
			}
			if cmd.Category != tt.category {
				t.Errorf("category = %q, want %q", cmd.Category, tt.category)
			}
			if cmd.PaymentMethod != tt.method {
				t.Errorf("method = %q, want %q", cmd.PaymentMethod, tt.method)
			}
		})
	}
}

func TestParseIncome(t *testing.T) {
	cmd := Parse("entrada 100 salário")
	if cmd.Kind != KindRecordIncome {
		t.Fatalf("kind = %q, want %q", cmd.Kind, KindRecordIncome)
	}
	if want := decimal.NewFromInt(100); !cmd.Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", cmd.Amount, want)
	}
	if cmd.Category != "salário" {
		t.Errorf("category = %q, want %q", cmd.Category, "salário")
	}

	cmd = Parse("entrada 50")
	if cmd.Category != DefaultIncomeCategory {
		t.Errorf("default category = %q, want %q", cmd.Category, DefaultIncomeCategory)
	}
}

func TestParseBalance(t *testing.T) {
	if cmd := Parse("saldo"); cmd.Kind != KindQueryBalance || cmd.Period != PeriodAll {
		t.Errorf("saldo = %+v, want query_balance/all", cmd)
	}
	if cmd := Parse("saldo total"); cmd.Period != PeriodAll {
		t.Errorf("saldo total period = %q, want %q", cmd.Period, PeriodAll)
	}
	if cmd := Parse("saldo hoje"); cmd.Period != PeriodToday {
		t.Errorf("saldo hoje period = %q, want %q", cmd.Period, PeriodToday)
	}
}

func TestParseEditDelete(t *testing.T) {
	cmd := Parse("editar 123 50.00")
	if cmd.Kind != KindEditTransaction || cmd.TransactionID != 123 {
		t.Fatalf("editar = %+v, want edit of #123", cmd)
	}
	if want := decimal.NewFromInt(50); !cmd.Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", cmd.Amount, want)
	}

	cmd = Parse("deletar 42")
	if cmd.Kind != KindDeleteTransaction || cmd.TransactionID != 42 {
		t.Fatalf("deletar = %+v, want delete of #42", cmd)
	}
}

func TestParseConfirmCancel(t *testing.T) {
	cmd := Parse("confirmar AB12CD")
	if cmd.Kind != KindConfirm {
		t.Fatalf("kind = %q, want %q", cmd.Kind, KindConfirm)
	}
	if cmd.Token != "ab12cd" {
		t.Errorf("token = %q, want %q (lowercased)", cmd.Token, "ab12cd")
	}

	if cmd := Parse("sim"); cmd.Kind != KindConfirm || cmd.Token != "" {
		t.Errorf("sim = %+v, want bare confirm", cmd)
	}
	for _, in := range []string{"cancelar", "não", "nao", "NÃO"} {
		if cmd := Parse(in); cmd.Kind != KindCancel {
			t.Errorf("Parse(%q).Kind = %q, want %q", in, cmd.Kind, KindCancel)
		}
	}
}

func TestParseUnrecognized(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"bom dia",
		"gasto",
		"gasto abc mercado pix",
		"entrada abc",
		"editar 123",
		"editar abc 50",
		"editar 123 abc",
		"deletar",
		"deletar abc",
	}
	for _, in := range inputs {
		if cmd := Parse(in); cmd.Kind != KindUnrecognized {
			t.Errorf("Parse(%q).Kind = %q, want %q", in, cmd.Kind, KindUnrecognized)
		}
	}
}

// A message claimed by a verb but with bad arguments must not fall through
// to a later rule.
func TestParseNoFallthrough(t *testing.T) {
	if cmd := Parse("deletar x9"); cmd.Kind != KindUnrecognized {
		t.Errorf("kind = %q, want %q", cmd.Kind, KindUnrecognized)
	}
}

func TestParseListClaimsFirst(t *testing.T) {
	if cmd := Parse("listar tudo agora"); cmd.Kind != KindListRecent {
		t.Errorf("kind = %q, want %q", cmd.Kind, KindListRecent)
	}
}
