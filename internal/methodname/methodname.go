// Package methodname splits legacy dispatch keys into an optional component
// and a command name.
package methodname

import "strings"

// Delimiter separates the component prefix from the command in a dispatch key.
const Delimiter = '*'

// Split decomposes name around the first Delimiter.
//
// Without a delimiter, hasComponent is false and command is name itself.
// With one, component is an independent copy of everything before the first
// delimiter and command is the remainder of name.
func Split(name string) (component string, hasComponent bool, command string) {
	i := strings.IndexByte(name, Delimiter)
	if i < 0 {
		return "", false, name
	}
	return strings.Clone(name[:i]), true, name[i+1:]
}
