package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/krissolling/delli-data/internal/api"
	"github.com/krissolling/delli-data/internal/diff"
	"github.com/krissolling/delli-data/internal/model"
)

// WriteConsole renders a per-type change summary to w. showLimit caps
// the rows printed per change type; the remainder collapses into an
// "and N more" line.
func WriteConsole(w io.Writer, changes []model.Change, showLimit int) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No changes detected.")
		return
	}

	fmt.Fprintf(w, "Changes detected: %d\n", len(changes))

	grouped := diff.GroupByType(changes)
	for _, typ := range model.ChangeTypes {
		items := grouped[typ]
		if len(items) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n%s (%d)\n", typ.Label(), len(items))

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Product", "Vendor", "Detail"})

		shown := items
		if showLimit > 0 && len(shown) > showLimit {
			shown = shown[:showLimit]
		}
		for _, c := range shown {
			t.AppendRow(table.Row{c.Title, c.Vendor, detailText(c)})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(items) > len(shown) {
			fmt.Fprintf(w, "... and %d more\n", len(items)-len(shown))
		}
	}
}

// detailText renders the change-specific column of the console table.
func detailText(c model.Change) string {
	d := c.Details
	switch c.Type {
	case model.ChangeNew:
		if d.PriceCents != nil {
			return api.CentsToPrice(*d.PriceCents)
		}
	case model.ChangeRemoved:
		return ""
	case model.ChangePrice:
		if d.OldPriceCents != nil && d.NewPriceCents != nil {
			return fmt.Sprintf("%s -> %s",
				api.CentsToPrice(*d.OldPriceCents),
				api.CentsToPrice(*d.NewPriceCents))
		}
	case model.ChangeAvailability:
		if d.NowAvailable != nil {
			if *d.NowAvailable {
				return "Back in stock"
			}
			return "Sold out"
		}
	case model.ChangeSaleStarted:
		if d.PriceCents != nil && d.CompareAtCents != nil {
			return fmt.Sprintf("ON SALE %s (was %s)",
				api.CentsToPrice(*d.PriceCents),
				api.CentsToPrice(*d.CompareAtCents))
		}
	case model.ChangeSaleEnded:
		if d.PriceCents != nil {
			return fmt.Sprintf("Sale ended, now %s", api.CentsToPrice(*d.PriceCents))
		}
	}
	return ""
}
