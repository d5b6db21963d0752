package validation

import (
	"fmt"
	"strings"
)

// ValidateExecutable validates an executable name or path taken from the
// configuration. Paths are allowed; shell metacharacters and arguments are
// not, since the value is passed to exec as the program name.
func ValidateExecutable(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("executable cannot be empty")
	}
	if name != strings.TrimSpace(name) || strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("executable %q contains whitespace; put arguments in the configuration instead", name)
	}

	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "*", "?"}
	for _, char := range dangerous {
		if strings.Contains(name, char) {
			return fmt.Errorf("executable contains dangerous character: %s", char)
		}
	}

	return nil
}
