package internal

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const MetaTitle = "title"

// PageMeta holds page level metadata declared at the top of a markdown
// document. Keys are lower-cased.
type PageMeta map[string]string

func (m PageMeta) Title() string {
	return strings.TrimSpace(m[MetaTitle])
}

var metaLine = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s*(.*)$`)

// ParseFrontmatter splits metadata from the document body. Two forms are
// recognized: a YAML block delimited by "---" lines, and a header of
// "Key: value" lines ended by the first blank line, where indented lines
// continue the previous value. Without metadata the source is returned
// unchanged.
func ParseFrontmatter(src []byte) (PageMeta, []byte) {
	if meta, body, ok := parseYAMLFrontmatter(src); ok {
		return meta, body
	}
	return parseHeaderFrontmatter(src)
}

func parseYAMLFrontmatter(src []byte) (PageMeta, []byte, bool) {
	content := string(src)
	if !strings.HasPrefix(content, "---\n") {
		return nil, src, false
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	body := ""
	switch {
	case idx >= 0:
		body = rest[idx+5:]
	case strings.HasSuffix(rest, "\n---"):
		idx = len(rest) - 4
	default:
		return nil, src, false
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &raw); err != nil {
		return nil, src, false
	}

	meta := PageMeta{}
	for k, v := range raw {
		meta[strings.ToLower(k)] = metaString(v)
	}
	return meta, []byte(strings.TrimPrefix(body, "\n")), true
}

func metaString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, metaString(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func parseHeaderFrontmatter(src []byte) (PageMeta, []byte) {
	var (
		meta PageMeta
		key  string
		rest = src
	)

	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		text := strings.TrimSuffix(string(line), "\r")

		if strings.TrimSpace(text) == "" {
			if meta != nil {
				rest = next
			}
			break
		}

		if m := metaLine.FindStringSubmatch(text); m != nil {
			if meta == nil {
				meta = PageMeta{}
			}
			key = strings.ToLower(m[1])
			meta[key] = strings.TrimSpace(m[2])
		} else if key != "" && strings.HasPrefix(text, "    ") {
			meta[key] = strings.TrimSpace(meta[key] + " " + strings.TrimSpace(text))
		} else {
			break
		}
		rest = next
	}

	if meta == nil {
		return nil, src
	}
	return meta, rest
}
