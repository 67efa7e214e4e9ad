package dialog

import (
	"strconv"
	"strings"
)

// Choice is anything offered to the patient as a numbered option.
type Choice interface {
	Identity() (id, label string)
	Display() (label, detail string)
}

// Resolve matches free-text input against the offered options. Ordinal
// selection ("2") wins first; otherwise the comparison is case-insensitive
// exact id, exact label, then label substring, in that order. Out-of-range
// ordinals fall through to the text comparison. Returns false when nothing
// matches; the caller re-prompts.
func Resolve[T Choice](message string, options []T) (T, bool) {
	var zero T
	if len(options) == 0 {
		return zero, false
	}

	trimmed := strings.TrimSpace(message)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
	}

	normalized := strings.ToLower(trimmed)
	if normalized == "" {
		return zero, false
	}

	for _, opt := range options {
		id, _ := opt.Identity()
		if strings.ToLower(id) == normalized {
			return opt, true
		}
	}
	for _, opt := range options {
		_, label := opt.Identity()
		if strings.ToLower(label) == normalized {
			return opt, true
		}
	}
	for _, opt := range options {
		_, label := opt.Identity()
		if strings.Contains(strings.ToLower(label), normalized) {
			return opt, true
		}
	}
	return zero, false
}
