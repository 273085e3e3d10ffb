package route

import (
	"fmt"
	"strings"

	"github.com/dgallion1/cvsplit/internal/sections"
)

const routingRules = `Rules:
1. Choose the MOST RELEVANT section(s).
2. You may return multiple sections if needed.
3. Do NOT invent new sections.
4. Prefer:
- "skills" for technologies, tools, programming languages
- "experience" for worked at, employed, job history
- "projects" for built, developed, implemented, worked on a product
- "interests" for sports, hobbies, extracurricular activities
5. Output ONLY valid JSON.
6. If no section is relevant, return the "general" section.

Return format:
{
"sections": ["section1", "section2"],
"confidence": "high | medium | low",
"reason": "short explanation"
}`

// BuildPrompt creates the routing prompt listing labels plus general.
func BuildPrompt(labels []string, question string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert CV analyzer.\n\n")
	sb.WriteString("Your task is to determine which CV section(s) are most relevant to answer a given user question.\n\n")
	sb.WriteString("Available CV sections:\n")
	for _, l := range labels {
		fmt.Fprintf(&sb, "- %s\n", l)
	}
	fmt.Fprintf(&sb, "- %s\n\n", sections.General)
	sb.WriteString(routingRules)
	sb.WriteString("\n\nInput question:\n\n")
	sb.WriteString(question)
	return sb.String()
}
