package recommend

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/climacast/climacast/internal/hazard"
	"github.com/climacast/climacast/internal/weather"
)

// Summarize builds the narrative paragraph for an analysis. Live conditions
// are included when present; the closing sentence depends on whether any
// hazard scored high.
func Summarize(locationName string, month time.Month, likelihoods hazard.Likelihoods, live *weather.Observation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The analysis for %s in %s (climatology) is complete. ", locationName, month.String())

	if live != nil {
		conditions := strings.ToUpper(live.ConditionsSummary)
		if conditions == "" {
			conditions = "UNKNOWN"
		}
		fmt.Fprintf(&b, "Current conditions are %s with a temperature of %d°C. ",
			conditions, int(math.Round(live.TemperatureC)))
	}

	highRisks := likelihoods.HighRiskHazards()
	if len(highRisks) == 0 {
		b.WriteString("Historically, this time of year presents a low likelihood of extreme weather conditions. Planning is advised to proceed with minor caution.")
	} else {
		fmt.Fprintf(&b, "Caution is advised: historically, the month of %s shows a high likelihood for: %s. Plan accordingly for these conditions.",
			month.String(), strings.Join(highRisks, ", "))
	}

	return b.String()
}
