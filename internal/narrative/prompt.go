package narrative

import (
	"strconv"
	"strings"
	"text/template"

	"storagefin/internal/analysis"
	"storagefin/pkg/contracts/domain"
)

const promptText = `Analyze this real estate financial performance:
- Current month rental income: {{currency .RentalIncome}}
- MoM income change: {{change .RentalIncomeChange}}
- Current occupancy: {{percent .Occupancy}}
- MoM occupancy change: {{percentChange .OccupancyChange}}
- DSCR this month: {{ratio .DSCR}}
- Cash reserves: {{currency .CashReserves}}
- Projected months to positive DSCR: {{months .MonthsToPositiveDSCR}}
- Total deficit before break-even: {{currency .CumulativeDeficit}}
{{- if .InterestFallbackUsed}}
- Note: interest expense was not reported; a fixed monthly amount of {{currency (index .Series.InterestExpense 0)}} was assumed.
{{- end}}
Do we have enough reserves to make it to break-even? What are the risks and recommendations?
`

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"currency": analysis.FormatCurrency,
	"percent":  analysis.FormatPercent,
	"ratio":    analysis.FormatRatio,
	"change": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return analysis.FormatAmount(*v)
	},
	"percentChange": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return analysis.FormatPercent(*v)
	},
	"months": func(v *int) string {
		if v == nil {
			return "Not within range"
		}
		return strconv.Itoa(*v)
	},
}).Parse(promptText))

// BuildPrompt renders the analysis request for a snapshot.
func BuildPrompt(snap *domain.FinancialSnapshot) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, snap); err != nil {
		return "", err
	}
	return b.String(), nil
}
