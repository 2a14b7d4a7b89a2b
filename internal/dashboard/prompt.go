package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"velym/backend/internal/model"
)

// BuildAnalysisPrompt renders the request sent to the AI endpoint for the
// dashboard insights panel. Missing windows are rendered as null.
func BuildAnalysisPrompt(latest *model.Assessment, avg7, avg30 *Averages) string {
	var b strings.Builder
	b.WriteString("You are a health data analyst. Analyse the following data and provide insights:\n\n")
	fmt.Fprintf(&b, "📊 Latest Assessment: %s\n", toJSON(latest))
	fmt.Fprintf(&b, "📈 7-Day Average: %s\n", toJSON(avg7))
	fmt.Fprintf(&b, "📆 30-Day Average: %s\n\n", toJSON(avg30))
	b.WriteString("Please:\n")
	b.WriteString("- Give **4-6 concise bullet-point insights**\n")
	b.WriteString("- Highlight **trends, risks, and positive improvements**\n")
	b.WriteString("- Use **emoji icons** for clarity (e.g., 😴 for sleep, 💪 for exercise, 🥗 for diet, 😊 for stress, 🤝 for social)\n")
	b.WriteString("- Keep tone **encouraging and supportive**\n")
	b.WriteString("- Format the response as **Markdown bullet points**\n")
	b.WriteString("- If the user has no data, say that they have not completed 7 days of assessments yet\n")
	return b.String()
}

func toJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}
