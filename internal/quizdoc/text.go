package quizdoc

import "strings"

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
