package common

// IsSymbol reports whether s is usable as a Hack assembly symbol: a
// non-empty run of letters, digits, '_', '.', '$' and ':' that does not
// start with a digit.
func IsSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_', r == '.', r == '$', r == ':':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
