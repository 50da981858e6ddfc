package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"CCLSentinel/internal/model"
	"CCLSentinel/internal/strategy"
)

var signalIcon = map[model.Signal]string{
	model.SignalOversold:   "🟢",
	model.SignalNeutral:    "⚪",
	model.SignalOverbought: "🔴",
}

func formatRSI(v null.Float) string {
	if !v.Valid {
		return "n/d"
	}
	return fmt.Sprintf("%.1f", v.Float64)
}

func formatDiff(v null.Float) string {
	if !v.Valid {
		return "n/d"
	}
	return fmt.Sprintf("%+.1f", v.Float64)
}

// FormatBatchReport formats a batch analysis into a Telegram message.
func FormatBatchReport(results []model.AnalysisResult, requested, lookback, windowDays int, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>RSI en pesos y en dólares CCL</b> | %s\n", now.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("RSI %d ruedas, ventana %d días\n\n", lookback, windowDays))

	if len(results) == 0 {
		b.WriteString("Sin datos para los símbolos solicitados.\n")
		return b.String()
	}
	if results[0].Basis == model.BasisSpot {
		b.WriteString("⚠️ Serie histórica del CCL no disponible, se usó el tipo de cambio actual.\n\n")
	}

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-6s %10s %9s %6s %6s %6s\n", "Acción", "ARS", "USD", "RSI$", "RSIu$", "Dif"))
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%-6s %10.2f %9.2f %6s %6s %6s\n",
			html.EscapeString(r.Symbol), r.LocalClose, r.HardClose,
			formatRSI(r.LocalRSI), formatRSI(r.HardRSI), formatDiff(r.Difference)))
	}
	b.WriteString("</pre>\n")

	for _, r := range results {
		b.WriteString(fmt.Sprintf("%s %s: %s (variación USD %+.1f%%)\n",
			signalIcon[r.Signal], html.EscapeString(r.Symbol), strategy.Describe(r.Signal), r.HardVariationPct))
	}
	if requested > len(results) {
		b.WriteString(fmt.Sprintf("\n%d de %d símbolos sin datos.\n", requested-len(results), requested))
	}

	b.WriteString(fmt.Sprintf("\n🟢 RSI USD &lt; %.0f sobrevendido | 🔴 RSI USD &gt; %.0f sobrecomprado\n",
		strategy.OversoldBelow, strategy.OverboughtAbove))
	return b.String()
}

// FormatRateStatus formats the current implied rate with both leg prices.
func FormatRateStatus(rate *model.CurrentRate) string {
	if rate == nil {
		return "❌ No se pudo calcular el dólar CCL."
	}
	var b strings.Builder
	b.WriteString("💵 <b>Dólar CCL implícito</b>\n\n")
	b.WriteString(fmt.Sprintf("Tipo de cambio: $%.2f\n", rate.Rate))
	b.WriteString(fmt.Sprintf("Referencia: %s\n", html.EscapeString(rate.Candidate.String())))
	b.WriteString(fmt.Sprintf("%s: $%.2f | %s: US$%.2f\n",
		html.EscapeString(rate.Candidate.Local), rate.LocalClose,
		html.EscapeString(rate.Candidate.Hard), rate.HardClose))
	b.WriteString(fmt.Sprintf("Fecha: %s\n", rate.Date.Format("2006-01-02")))
	return b.String()
}
