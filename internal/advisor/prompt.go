package advisor

import (
	"fmt"
	"strings"

	"github.com/Ayash-Bera/mediguide/internal/triage"
)

// BuildPrompt describes a finished assessment to the model. The score and
// tier are stated as facts for the model to explain, not to revise.
func BuildPrompt(text string, a triage.Assessment) string {
	var b strings.Builder

	b.WriteString("You are MediGuide, an empathetic medical advisory assistant.\n\n")
	fmt.Fprintf(&b, "Patient message: %q\n\n", strings.TrimSpace(text))

	b.WriteString("Assessment already computed by the triage engine:\n")
	if len(a.Symptoms) == 0 {
		b.WriteString("- Detected symptoms: none recognised\n")
	} else {
		fmt.Fprintf(&b, "- Detected symptoms: %s\n", humanize(a.Symptoms.Strings()))
	}
	fmt.Fprintf(&b, "- Severity score: %d/100\n", a.Score)
	fmt.Fprintf(&b, "- Recommended action: %s\n", humanize([]string{string(a.Tier)}))
	fmt.Fprintf(&b, "- Suggested specialists: %s\n\n", humanize(triage.SpecializationStrings(a.Specializations)))

	b.WriteString("Write two or three short paragraphs that explain this recommendation in plain language, ")
	b.WriteString("suggest self-care where it is safe, and list warning signs that should prompt urgent care. ")
	b.WriteString("Do not change the severity score or the recommended action. ")
	b.WriteString("End with this disclaimer: \"" + triage.Disclaimer + "\"")

	return b.String()
}

func humanize(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ReplaceAll(v, "_", " ")
	}
	return strings.Join(out, ", ")
}
