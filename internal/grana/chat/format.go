package chat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rmartins/grana/internal/grana/ledger"
)

// format.go renders every user-facing reply. All functions here are pure:
// no I/O, no clock, no store access.

// recentListLimit is how many transactions "listar" shows.
const recentListLimit = 5

const helpText = `❓ Comando não reconhecido.

📋 Comandos disponíveis:

💸 gasto 25 mercado pix
💰 entrada 100 salário
📊 saldo total
📊 saldo hoje
📋 listar
✏️ editar 123 50
🗑️ deletar 123`

const (
	noPendingText       = "❌ Nenhuma confirmação pendente."
	expiredText         = "⏰ Confirmação expirada. Tente novamente."
	tokenMismatchText   = "❌ Código de confirmação incorreto. Confira o código e tente novamente."
	cancelledText       = "❌ Operação cancelada."
	nothingToCancelText = "❌ Nenhuma operação para cancelar."
	confirmFailedText   = "❌ Erro ao processar confirmação. Tente novamente."
	genericErrorText    = "❌ Erro ao processar sua mensagem. Tente novamente."
	rateLimitedText     = "⏳ Muitas mensagens em sequência. Aguarde um instante e tente novamente."

	emptyListText = "📋 Nenhuma transação registrada ainda.\n\nUse: gasto 25 mercado pix"

	expenseUsageText = "❌ Comando inválido. Use: gasto 25 mercado pix"
	incomeUsageText  = "❌ Comando inválido. Use: entrada 100 salário"
	editUsageText    = "❌ Comando inválido. Use: editar 123 50.00"
	deleteUsageText  = "❌ Comando inválido. Use: deletar 123"
)

// money renders a decimal amount with two places, e.g. "25.50".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatExpensePrompt(amount decimal.Decimal, category, method, token string) string {
	return fmt.Sprintf(
		"💸 Confirmar gasto?\n\nValor: R$ %s\nCategoria: %s\nMétodo: %s\n\nResponda: confirmar %s\nOu: cancelar",
		money(amount), category, method, token)
}

func formatIncomePrompt(amount decimal.Decimal, category, token string) string {
	return fmt.Sprintf(
		"💰 Confirmar entrada?\n\nValor: R$ %s\nCategoria: %s\n\nResponda: confirmar %s\nOu: cancelar",
		money(amount), category, token)
}

func formatEditPrompt(id int64, amount decimal.Decimal, token string) string {
	return fmt.Sprintf(
		"⚠️ Confirmar edição da transação #%d?\n\nNovo valor: R$ %s\n\nResponda: confirmar %s\nOu: cancelar",
		id, money(amount), token)
}

func formatDeletePrompt(id int64, token string) string {
	return fmt.Sprintf(
		"⚠️ Confirmar exclusão da transação #%d?\n\nResponda: confirmar %s\nOu: cancelar",
		id, token)
}

func formatRecorded(kind PendingKind, amount decimal.Decimal) string {
	if kind == PendingIncome {
		return fmt.Sprintf("✅ 💰 Entrada de R$ %s registrada com sucesso!", money(amount))
	}
	return fmt.Sprintf("✅ 💸 Gasto de R$ %s registrado com sucesso!", money(amount))
}

func formatUpdated(id int64, amount decimal.Decimal) string {
	return fmt.Sprintf("✅ Transação #%d atualizada para R$ %s!", id, money(amount))
}

func formatDeleted(id int64) string {
	return fmt.Sprintf("✅ Transação #%d deletada com sucesso!", id)
}

func formatBalance(period string, income, expense decimal.Decimal) string {
	label := "total"
	if period == PeriodToday {
		label = "de hoje"
	}
	return fmt.Sprintf(
		"💰 Saldo %s:\n\n📈 Entradas: R$ %s\n📉 Saídas: R$ %s\n💵 Saldo: R$ %s",
		label, money(income), money(expense), money(income.Sub(expense)))
}

// formatRecent renders the most recent transactions, newest first.
func formatRecent(txs []ledger.Transaction) string {
	if len(txs) == 0 {
		return emptyListText
	}

	start := len(txs) - recentListLimit
	if start < 0 {
		start = 0
	}
	recent := txs[start:]

	var b strings.Builder
	b.WriteString("📋 Últimas 5 Transações:\n\n")
	for i := len(recent) - 1; i >= 0; i-- {
		t := recent[i]
		icon := "📉"
		if t.Type == ledger.TypeIncome {
			icon = "📈"
		}
		fmt.Fprintf(&b, "%s [ID: %d] %s\n   R$ %s | %s\n", icon, t.ID, t.Category, money(t.Amount), t.Date)
	}
	return b.String()
}

func formatBudgetExceeded(category string, limit, spent decimal.Decimal) string {
	return fmt.Sprintf(
		"⚠️ ALERTA: Você ultrapassou a meta de %s!\n\nMeta: R$ %s\nGasto: R$ %s\nExcesso: R$ %s",
		category, money(limit), money(spent), money(spent.Sub(limit)))
}

func formatBudgetWarning(category string, limit, spent decimal.Decimal) string {
	return fmt.Sprintf(
		"⚠️ ATENÇÃO: Você está próximo da meta de %s!\n\nMeta: R$ %s\nGasto: R$ %s\nRestante: R$ %s",
		category, money(limit), money(spent), money(limit.Sub(spent)))
}

// RateLimitedReply is sent when a sender exceeds the message rate limit.
func RateLimitedReply() string {
	return rateLimitedText
}
