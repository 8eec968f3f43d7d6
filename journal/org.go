package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatFillOrg renders a fill as an Org-mode block. Structured facts go in
// the PROPERTIES drawer; the Notes heading is left for the operator.
func FormatFillOrg(r FillRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Fill: %s %s @ %s (%s)\n", r.Symbol, r.Side, r.Price, shortID(r.OrderID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":RUN_ID: %s\n", r.RunID)
	fmt.Fprintf(&b, ":ORDER_ID: %s\n", r.OrderID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", r.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", r.Side)
	fmt.Fprintf(&b, ":PRICE: %s\n", r.Price)
	fmt.Fprintf(&b, ":SIZE: %s\n", r.Size)
	fmt.Fprintf(&b, ":MIRROR_ID: %s\n", r.MirrorID)
	fmt.Fprintf(&b, ":MIRROR_SIDE: %s\n", r.MirrorSide())
	fmt.Fprintf(&b, ":MIRROR_PRICE: %s\n", r.MirrorPrice)
	fmt.Fprintf(&b, ":TIME: %s\n", r.Time.UTC().Format(time.RFC3339))
	b.WriteString(":END:\n\n")
	b.WriteString("*** Notes\n- \n")
	return b.String()
}

// FormatFillsOrg renders multiple fills separated by blank lines.
func FormatFillsOrg(fills []FillRecord) string {
	var b strings.Builder
	for i, r := range fills {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatFillOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
