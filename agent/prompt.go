package agent

import "strings"

// SystemInstructions is the fixed instruction block of every prompt.
const SystemInstructions = "You are a helpful chat assistant that remembers user facts and preferences. Use memory where appropriate."

// noMemoryMarker fills the memory block when nothing is known about the
// sender, keeping the prompt shape constant.
const noMemoryMarker = "(no memory)"

// BuildPrompt assembles the generation request for one message.
// Pure: identical inputs always produce byte-identical output.
func BuildPrompt(sender string, snippets []string, text string) string {
	block := noMemoryMarker
	if len(snippets) > 0 {
		block = strings.Join(snippets, "\n")
	}

	var b strings.Builder
	b.WriteString(SystemInstructions)
	b.WriteString("\nMemory for ")
	b.WriteString(sender)
	b.WriteString(":\n")
	b.WriteString(block)
	b.WriteString("\nUser: ")
	b.WriteString(text)
	return b.String()
}
