package render

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an integer yen amount with digit grouping, e.g. ¥440,000.
func FormatYen(v int64) string {
	return yenPrinter.Sprintf("¥%d", v)
}

// FormatDateJP converts an ISO date (2024-05-01) to 2024年05月01日. Anything
// that does not parse is passed through unchanged.
func FormatDateJP(isoDate string) string {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return fmt.Sprintf("%d年%02d月%02d日", t.Year(), int(t.Month()), t.Day())
}
