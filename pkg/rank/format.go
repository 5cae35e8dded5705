package rank

import (
	"strconv"
	"strings"
)

// NotificationText renders the summary as a plain-text message, one line
// per ranked ticker in the form "<ticker>: <pct_change>%".
func (s Summary) NotificationText() string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.Ticker)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(r.PctChange, 'f', -1, 64))
		b.WriteString("%")
	}
	return b.String()
}
