/*
Package frontmatter reads and writes the flat metadata block prefixed to
portfolio content files. The format is deliberately narrower than YAML: a
`---` line, a list of `key: value` pairs, a closing `---` line. Values are
strings, except the literal tokens true/false which become booleans. Numeric
strings stay strings.
*/
package frontmatter

import (
	"fmt"
	"strings"
)

const delimiter = "---"

/*
Parse extracts the frontmatter block from rawText and returns its fields as
a flat map. It returns nil when the delimiter pair is absent. Body text after
the closing delimiter is ignored. Within the block, blank lines, comment
lines starting with '#', and lines without a colon are skipped. When a key
appears more than once the last occurrence wins.
*/
func Parse(rawText string) map[string]any {
	block, ok := extractBlock(rawText)

	if !ok {
		return nil
	}

	data := map[string]any{}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		colonIndex := strings.Index(line, ":")

		if colonIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:colonIndex])
		value := strings.TrimSpace(line[colonIndex+1:])

		data[key] = normalizeValue(value)
	}

	return data
}

func extractBlock(rawText string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(rawText, "\r\n", "\n"), "\n")

	if len(lines) < 2 || strings.TrimSpace(lines[0]) != delimiter {
		return "", false
	}

	for index := 1; index < len(lines); index++ {
		if strings.TrimSpace(lines[index]) == delimiter {
			return strings.Join(lines[1:index], "\n"), true
		}
	}

	return "", false
}

/*
normalizeValue strips one layer of matching surrounding quotes, then maps the
literal tokens true/false (any casing) to booleans. Everything else stays a
string.
*/
func normalizeValue(value string) any {
	if len(value) >= 2 {
		first := value[0]
		last := value[len(value)-1]

		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			value = value[1 : len(value)-1]
		}
	}

	if strings.EqualFold(value, "true") {
		return true
	}

	if strings.EqualFold(value, "false") {
		return false
	}

	return value
}

/*
IsCoverTrue reports whether a frontmatter value marks an entry as the album
cover. The CMS has written this field several ways over time, so the full set
of encodings is accepted: boolean true, the string "true" in any casing, and
the number 1 quoted or not.
*/
func IsCoverTrue(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	case int:
		return v == 1
	case float64:
		return v == 1
	default:
		return false
	}
}

type Field struct {
	Key   string
	Value any
}

/*
Serialize renders fields as a frontmatter block in the given order. Booleans
are written as lowercase true/false; everything else with fmt formatting.
*/
func Serialize(fields []Field) string {
	sb := strings.Builder{}
	sb.WriteString(delimiter)
	sb.WriteString("\n")

	for _, field := range fields {
		sb.WriteString(fmt.Sprintf("%s: %v\n", field.Key, field.Value))
	}

	sb.WriteString(delimiter)
	sb.WriteString("\n")

	return sb.String()
}
