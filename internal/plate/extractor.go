package plate

import (
	"regexp"
	"strings"
)

// NotFound is returned when the recognized text contains nothing shaped
// like a registration number. It is a valid pipeline outcome, not an
// error, and ends up in the ledger verbatim.
const NotFound = "No plate number found"

// Indian registration format: state code, district number, optional
// series letters, four-digit number. Spacing between groups is optional,
// so both "MH 20 EE 7602" and "KA03MN7654" match.
var platePattern = regexp.MustCompile(`[A-Z]{2}\s?\d{1,2}\s?[A-Z]{0,2}\s?\d{4}`)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Extract returns the first plate-shaped substring of fullText with its
// internal spacing preserved, or NotFound. Line breaks are folded to
// single spaces first so a plate split across OCR lines still matches.
func Extract(fullText string) string {
	match := platePattern.FindString(newlines.Replace(fullText))
	if match == "" {
		return NotFound
	}
	return match
}
