package mail

import (
	"strings"
)

// LintHTML flags constructs known to break in common email clients. It is
// advisory only; delivery never blocks on lint findings.
func LintHTML(htmlContent string) []string {
	var issues []string
	lower := strings.ToLower(htmlContent)

	if !strings.Contains(lower, "doctype html") {
		issues = append(issues, "Missing DOCTYPE declaration")
	}

	if strings.Contains(lower, "display: flex") || strings.Contains(lower, "display:flex") {
		issues = append(issues, "WARNING: CSS flexbox not supported in many email clients")
	}

	if strings.Contains(lower, "display: grid") || strings.Contains(lower, "display:grid") {
		issues = append(issues, "WARNING: CSS grid not supported in many email clients")
	}

	if strings.Contains(lower, "background-image") {
		issues = append(issues, "WARNING: Background images not supported in Outlook")
	}

	if strings.Contains(lower, "<video") || strings.Contains(lower, "<audio") {
		issues = append(issues, "WARNING: Embedded media is stripped by most email clients")
	}

	return issues
}
