package restorer

// Selector lets the user choose one or more lines from a list.
// Implementations must write any prompts or list rendering to stderr so
// that stdout stays reserved for captured selection results.
//
// An empty result means the user cancelled the selection. Callers must
// treat that as a normal cancellation, not an error.
type Selector interface {
	// SingleSelect returns the one chosen line, or "" on cancel.
	SingleSelect(prompt string, lines []string) (string, error)

	// MultiSelect returns the chosen lines, or an empty slice on cancel.
	MultiSelect(prompt string, lines []string) ([]string, error)
}
