package transcript

import "regexp"

var timestampPrefix = regexp.MustCompile(`^\d{2,}:\d{2}`)

// InsertTimestamp inserts the "mm:ss" token for seconds into text at the
// cursor. If the line under the cursor already starts with an "mm:ss"
// token, only that prefix is replaced and the rest of the line is left
// untouched. Otherwise the token plus a separating space is inserted at the
// cursor, replacing any selected range. Other lines are never altered.
func InsertTimestamp(text string, cursor, selectionLen, seconds int) string {
	token := FormatTimestamp(seconds)

	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	selEnd := cursor + selectionLen
	if selEnd < cursor {
		selEnd = cursor
	}
	if selEnd > len(text) {
		selEnd = len(text)
	}

	lineStart := 0
	for i := cursor - 1; i >= 0; i-- {
		if text[i] == '\n' {
			lineStart = i + 1
			break
		}
	}
	lineEnd := len(text)
	for i := cursor; i < len(text); i++ {
		if text[i] == '\n' {
			lineEnd = i
			break
		}
	}

	line := text[lineStart:lineEnd]
	// Splice by the matched prefix's own length: the existing token and the
	// new one can differ in width once minutes pass two digits.
	if prefix := timestampPrefix.FindString(line); prefix != "" {
		return text[:lineStart] + token + text[lineStart+len(prefix):]
	}

	return text[:cursor] + token + " " + text[selEnd:]
}
