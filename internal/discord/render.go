// Package discord implements the channel delivery transport: rendering
// listing batches as embeds with purchase buttons, posting and editing
// messages through the Discord REST API, and verifying inbound
// interaction callbacks.
package discord

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

const (
	colorSell   = 0x2ECC71
	colorBuy    = 0x3498DB
	colorClosed = 0x95A5A6

	// customIDPrefix namespaces our component ids so unrelated
	// interactions are rejected cheaply.
	customIDPrefix = "herald"
)

// componentTypeActionRow and friends are Discord component type codes.
const (
	componentTypeActionRow = 1
	componentTypeButton    = 2

	buttonStylePrimary   = 1
	buttonStyleSecondary = 2
)

// MessageContent is the rendered body of one batch message.
type MessageContent struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds"`
	Components []ActionRow `json:"components,omitempty"`
}

// Embed is the subset of Discord's embed object we emit.
type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []EmbedField `json:"fields,omitempty"`
	Thumbnail *Thumbnail   `json:"thumbnail,omitempty"`
	Footer    *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Thumbnail references an embed thumbnail image.
type Thumbnail struct {
	URL string `json:"url"`
}

// EmbedFooter is the small text line under an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// ActionRow holds up to five buttons.
type ActionRow struct {
	Type       int      `json:"type"`
	Components []Button `json:"components"`
}

// Button is an interactive purchase button.
type Button struct {
	Type     int    `json:"type"`
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
	Disabled bool   `json:"disabled,omitempty"`
}

// InteractionRef is a parsed component custom id pointing at one
// rendered listing inside a message. Position is the listing's 1-based
// slot, matching the "Buy #N" button labels and the delivery records.
type InteractionRef struct {
	ListingID string
	Position  int
}

// BuildCustomID encodes a listing reference into a component custom id.
func BuildCustomID(listingID string, position int) string {
	return fmt.Sprintf("%s:buy:%s:%d", customIDPrefix, listingID, position)
}

// ParseCustomID decodes a component custom id back into a listing
// reference. Returns nil for ids that are not ours or are malformed;
// callers treat nil as a stale or foreign reference.
func ParseCustomID(customID string) *InteractionRef {
	parts := strings.Split(customID, ":")
	if len(parts) != 4 || parts[0] != customIDPrefix || parts[1] != "buy" {
		return nil
	}
	if parts[2] == "" {
		return nil
	}
	pos, err := strconv.Atoi(parts[3])
	if err != nil || pos < 1 {
		return nil
	}
	return &InteractionRef{ListingID: parts[2], Position: pos}
}

// RenderBatch renders a batch into one message: one embed per listing
// plus a row of purchase buttons keyed by position. Listing order in the
// batch is the position order, so edits regenerated from persisted data
// keep the original layout.
func RenderBatch(b *domain.Batch) *MessageContent {
	return RenderListings(b.Listings, b.Sequence)
}

// RenderListings renders an ordered listing slice as message content.
// Used both for initial batch delivery and for regenerating an existing
// message after a status change.
func RenderListings(listings []domain.Listing, sequence int) *MessageContent {
	msg := &MessageContent{
		Content: fmt.Sprintf("Trade batch #%d", sequence),
		Embeds:  make([]Embed, 0, len(listings)),
	}

	var buttons []Button
	for i := range listings {
		l := &listings[i]
		msg.Embeds = append(msg.Embeds, renderListing(l, i))
		buttons = append(buttons, Button{
			Type:     componentTypeButton,
			Style:    buttonStyle(l),
			Label:    fmt.Sprintf("Buy #%d", i+1),
			CustomID: BuildCustomID(l.ID, i+1),
			Disabled: l.Status != domain.StatusActive,
		})
	}

	// Discord caps a row at five buttons, matching the batch size cap.
	for start := 0; start < len(buttons); start += 5 {
		end := min(start+5, len(buttons))
		msg.Components = append(msg.Components, ActionRow{
			Type:       componentTypeActionRow,
			Components: buttons[start:end],
		})
	}

	return msg
}

func renderListing(l *domain.Listing, position int) Embed {
	e := Embed{
		Title: fmt.Sprintf("%d. %s", position+1, listingTitle(l)),
		Color: listingColor(l),
		Fields: []EmbedField{
			{Name: "Offering", Value: itemLine(&l.Offering), Inline: true},
			{Name: "Wanting", Value: itemLine(&l.Wanting), Inline: true},
			{Name: "Status", Value: l.Status, Inline: true},
			{Name: "Seller", Value: sellerLine(&l.Seller), Inline: false},
		},
		Footer: &EmbedFooter{
			Text: fmt.Sprintf("Listed %s", l.CreatedAt.Format("2006-01-02 15:04 UTC")),
		},
	}
	if l.Offering.Icon != "" {
		e.Thumbnail = &Thumbnail{URL: l.Offering.Icon}
	}
	return e
}

func listingTitle(l *domain.Listing) string {
	if l.Kind == domain.KindBuy {
		return fmt.Sprintf("Buying %s", l.Wanting.Name)
	}
	return fmt.Sprintf("Selling %s", l.Offering.Name)
}

func listingColor(l *domain.Listing) int {
	switch {
	case l.Status != domain.StatusActive:
		return colorClosed
	case l.Kind == domain.KindBuy:
		return colorBuy
	default:
		return colorSell
	}
}

func buttonStyle(l *domain.Listing) int {
	if l.Status == domain.StatusActive {
		return buttonStylePrimary
	}
	return buttonStyleSecondary
}

func itemLine(it *domain.TradeItem) string {
	line := fmt.Sprintf("%s x%d", it.Name, it.Quantity)
	if it.Rarity != "" {
		line += fmt.Sprintf(" (%s)", it.Rarity)
	}
	return line
}

func sellerLine(s *domain.SellerProfile) string {
	if s.FullName != "" && s.FullName != s.Handle {
		return fmt.Sprintf("%s (@%s)", s.FullName, s.Handle)
	}
	return "@" + s.Handle
}
