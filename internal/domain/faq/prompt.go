package faq

import "strings"

// BuildContext renders retrieved entries as Q/A blocks separated by a blank line.
func BuildContext(matches []Match) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, "Q: "+m.Entry.Question+"\nA: "+m.Entry.Answer)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt interpolates context and question into the template in a single pass,
// so placeholder text inside either value is left untouched.
func BuildPrompt(template, context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(template)
}
