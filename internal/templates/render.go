package templates

import "strings"

// Render replaces every {{name}} placeholder in template with the value from
// vars. Unmatched placeholders are left verbatim rather than failing, so a
// partially-specified variable set still produces a usable instruction —
// availability is preferred over strict validation here.
func Render(template string, vars map[string]string) string {
	result := template
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}
	return result
}
