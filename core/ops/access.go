package ops

// Access classifies who may run a command.
type Access int

const (
	AccessPublic Access = iota // Anyone
	AccessAdmin                // Identities listed in the authorization file
)

// AccessClassifier is an optional interface commands may implement to
// declare their access level. Commands that don't implement it are public.
type AccessClassifier interface {
	Access() Access
}

// AccessOf returns the access level of a command.
func AccessOf(cmd Command) Access {
	if ac, ok := cmd.(AccessClassifier); ok {
		return ac.Access()
	}
	return AccessPublic
}

// Formatter is an optional interface ops implement when their output is
// markup rather than plain text.
type Formatter interface {
	ParseMode() string
}

// ParseModeOf returns the op's parse mode, empty for plain text.
func ParseModeOf(op Op) string {
	if f, ok := op.(Formatter); ok {
		return f.ParseMode()
	}
	return ""
}

// LocationPrompter is implemented by ops that ask for the caller's location
// when run without arguments.
type LocationPrompter interface {
	LocationPrompt() string
}
