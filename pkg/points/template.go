package points

import (
	"regexp"

	"github.com/matzehuels/keyplate/pkg/config"
)

// maxTemplatePasses bounds template expansion so self-referencing fields
// terminate.
const maxTemplatePasses = 10

var placeholder = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// template replaces every {{path}} in s with the value at path in vals.
// Missing paths expand to the empty string.
func template(s string, vals config.Value) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		path := placeholder.FindStringSubmatch(m)[1]
		v, ok := vals.GetPath(path)
		if !ok || v.IsNull() {
			return ""
		}
		return v.String()
	})
}

// expandTemplates resolves the templated string fields of a key map. Each
// pass sees the results of the previous one, so fields may refer to each
// other.
func expandTemplates(m config.Value) config.Value {
	for pass := 0; pass < maxTemplatePasses; pass++ {
		changed := false
		for _, e := range m.Entries() {
			s, ok := e.Value.AsString()
			if !ok || numericFields[e.Key] || !placeholder.MatchString(s) {
				continue
			}
			if out := template(s, m); out != s {
				m = m.With(e.Key, config.String(out))
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return m
}
