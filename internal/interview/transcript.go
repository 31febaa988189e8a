package interview

import "strings"

// FormatEntries renders the transcript log as the text payload sent to the
// save-interview endpoint: one "Speaker (timestamp): text" line per entry.
func FormatEntries(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(e.Speaker))
		b.WriteString(" (")
		b.WriteString(e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
		b.WriteString("): ")
		b.WriteString(e.Text)
	}
	return b.String()
}
