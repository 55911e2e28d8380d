package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/krissolling/delli-data/internal/api"
	"github.com/krissolling/delli-data/internal/diff"
	"github.com/krissolling/delli-data/internal/model"
)

// StepSummaryEnv names the file GitHub Actions appends step summaries to.
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

// markdownShowLimit caps rows per change type in markdown output.
const markdownShowLimit = 20

// Markdown renders the run report as GitHub-flavored markdown.
// baseURL builds product links (baseURL + "/products/" + handle).
func Markdown(changes []model.Change, baseURL string) string {
	var b strings.Builder
	b.WriteString("# Delli Catalog Tracker Report\n\n")

	if len(changes) == 0 {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**%d changes detected**\n\n", len(changes))

	grouped := diff.GroupByType(changes)
	for _, typ := range model.ChangeTypes {
		items := grouped[typ]
		if len(items) == 0 {
			continue
		}

		fmt.Fprintf(&b, "## %s (%d)\n\n", typ.Label(), len(items))

		shown := items
		if len(shown) > markdownShowLimit {
			shown = shown[:markdownShowLimit]
		}
		for _, c := range shown {
			b.WriteString(markdownLine(c, baseURL))
		}
		if len(items) > len(shown) {
			fmt.Fprintf(&b, "- *... and %d more*\n", len(items)-len(shown))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func markdownLine(c model.Change, baseURL string) string {
	link := fmt.Sprintf("[%s](%s/products/%s)", c.Title, baseURL, c.Handle)
	d := c.Details

	switch c.Type {
	case model.ChangePrice:
		if d.OldPriceCents != nil && d.NewPriceCents != nil {
			return fmt.Sprintf("- %s: %s → %s\n", link,
				api.CentsToPrice(*d.OldPriceCents),
				api.CentsToPrice(*d.NewPriceCents))
		}
	case model.ChangeAvailability:
		if d.NowAvailable != nil {
			if *d.NowAvailable {
				return fmt.Sprintf("- %s: Back in stock\n", link)
			}
			return fmt.Sprintf("- %s: Sold out\n", link)
		}
	case model.ChangeSaleStarted:
		if d.PriceCents != nil && d.CompareAtCents != nil {
			return fmt.Sprintf("- %s: **%s** ~~%s~~\n", link,
				api.CentsToPrice(*d.PriceCents),
				api.CentsToPrice(*d.CompareAtCents))
		}
	}
	return fmt.Sprintf("- %s (%s)\n", link, c.Vendor)
}

// WriteStepSummary appends the markdown report to the file named by
// GITHUB_STEP_SUMMARY, when set. Outside CI it is a no-op.
func WriteStepSummary(changes []model.Change, baseURL string) error {
	path := os.Getenv(StepSummaryEnv)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(Markdown(changes, baseURL)); err != nil {
		return fmt.Errorf("write step summary: %w", err)
	}
	return nil
}
