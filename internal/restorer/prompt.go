package restorer

// Prompter asks the user yes/no questions and collects free-form input.
// Prompt text goes to stderr; answers are read from stdin.
type Prompter interface {
	// Confirm asks a yes/no question. def is returned on empty input.
	Confirm(question string, def bool) (bool, error)

	// Input asks for a single line of text. Returns "" if the user
	// entered nothing.
	Input(question string) (string, error)
}
