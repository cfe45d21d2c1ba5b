// Package jsonx extracts JSON values embedded in free-form model output.
package jsonx

// FindObjects scans the input string for top-level JSON object candidates.
// It returns a slice of strings, each representing a potential JSON object.
// It handles nested braces and string escaping to correctly identify boundaries.
//
// A byte-level state machine skips over strings and non-JSON content such as
// prose preambles or markdown fences, so candidates are located without regex.
//
// Note: It is safe to iterate bytes for ASCII delimiters ({, }, ", \) because
// UTF-8 encoding guarantees that ASCII bytes never appear as part of a multi-byte sequence.
func FindObjects(s string) []string {
	var candidates []string
	var depth int
	var start int = -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		// Handle escape sequences inside strings
		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		// Not in string
		if b == '"' {
			inString = true
			continue
		}

		if b == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == '}' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					// Found a complete top-level object
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}

// FirstArray returns the first top-level JSON array candidate in s, using the
// same string-aware scan as FindObjects. The second return is false when no
// balanced array is present.
func FirstArray(s string) (string, bool) {
	var depth int
	var start int = -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			continue
		}

		if b == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == ']' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
