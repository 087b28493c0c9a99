package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tKIND\tSTATUS\tOFFERING\tWANTING\tSELLER\tDELIVERED\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			l.ID,
			l.Kind,
			l.Status,
			tradeItemLabel(&l.Offering),
			tradeItemLabel(&l.Wanting),
			l.Seller.Handle,
			l.Delivered,
		)
	}
	return tw.finish()
}

func printListingDetail(l *domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", l.ID)
	tw.writef("Kind:\t%s\n", l.Kind)
	tw.writef("Status:\t%s\n", l.Status)
	tw.writef("Offering:\t%s\n", tradeItemLabel(&l.Offering))
	tw.writef("Wanting:\t%s\n", tradeItemLabel(&l.Wanting))
	tw.writef("Seller:\t%s (@%s)\n", l.Seller.FullName, l.Seller.Handle)
	tw.writef("Created:\t%s\n", l.CreatedAt.Format("2006-01-02 15:04:05"))
	tw.writef("Delivered:\t%v\n", l.Delivered)
	if !l.FirstSeenAt.IsZero() {
		tw.writef("First Seen:\t%s\n", l.FirstSeenAt.Format("2006-01-02 15:04:05"))
	}
	return tw.finish()
}

func printSystemState(s *domain.SystemState) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Listings:\t%d\n", s.ListingsTotal)
	tw.writef("Delivered:\t%d\n", s.ListingsDelivered)
	tw.writef("Undelivered:\t%d\n", s.ListingsUndelivered)
	tw.writef("Delivery Records:\t%d\n", s.DeliveryRecords)
	return tw.finish()
}

func tradeItemLabel(it *domain.TradeItem) string {
	label := fmt.Sprintf("%s x%d", it.Name, it.Quantity)
	if it.Rarity != "" {
		label += " (" + it.Rarity + ")"
	}
	return truncate(label, 40)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
