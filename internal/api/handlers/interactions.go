package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gardenmarket/listing-herald/internal/discord"
	"github.com/gardenmarket/listing-herald/internal/metrics"
	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// InteractionResolver maps a pressed button back to its listing.
type InteractionResolver interface {
	HandleInteraction(ctx context.Context, messageID string, position int) (*domain.Listing, error)
}

// InteractionsHandler receives Discord interaction callbacks. The
// endpoint speaks Discord's raw wire format, so it hangs off Echo
// directly rather than the Huma API.
type InteractionsHandler struct {
	verifier *discord.Verifier
	resolver InteractionResolver
	log      *slog.Logger
}

// NewInteractionsHandler creates an InteractionsHandler.
func NewInteractionsHandler(v *discord.Verifier, r InteractionResolver, log *slog.Logger) *InteractionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &InteractionsHandler{verifier: v, resolver: r, log: log}
}

// Handle processes one interaction callback: signature check, ping
// handshake, then button presses resolved through the delivery tracker.
func (h *InteractionsHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	sig := c.Request().Header.Get("X-Signature-Ed25519")
	timestamp := c.Request().Header.Get("X-Signature-Timestamp")
	if !h.verifier.Verify(timestamp, body, sig) {
		metrics.InteractionsTotal.WithLabelValues("unauthorized").Inc()
		return c.NoContent(http.StatusUnauthorized)
	}

	in, err := discord.ParseInteraction(body)
	if err != nil {
		metrics.InteractionsTotal.WithLabelValues("invalid").Inc()
		return c.NoContent(http.StatusBadRequest)
	}

	switch in.Type {
	case discord.InteractionPing:
		metrics.InteractionsTotal.WithLabelValues("pong").Inc()
		return c.JSON(http.StatusOK, discord.Pong())
	case discord.InteractionComponent:
		return h.handleComponent(c, in)
	default:
		metrics.InteractionsTotal.WithLabelValues("invalid").Inc()
		return c.NoContent(http.StatusBadRequest)
	}
}

func (h *InteractionsHandler) handleComponent(c echo.Context, in *discord.Interaction) error {
	if in.Data == nil || in.Message == nil {
		metrics.InteractionsTotal.WithLabelValues("invalid").Inc()
		return c.NoContent(http.StatusBadRequest)
	}

	ref := discord.ParseCustomID(in.Data.CustomID)
	if ref == nil {
		metrics.InteractionsTotal.WithLabelValues("invalid").Inc()
		return c.NoContent(http.StatusBadRequest)
	}

	listing, err := h.resolver.HandleInteraction(c.Request().Context(), in.Message.ID, ref.Position)
	if err != nil {
		h.log.Error("interaction lookup failed",
			"message_id", in.Message.ID,
			"position", ref.Position,
			"error", err,
		)
		metrics.InteractionsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusOK,
			discord.EphemeralReply("Something went wrong, try again later."))
	}

	// A missing or mismatched mapping means the button points at a
	// message that was edited or re-rendered since delivery.
	if listing == nil || listing.ID != ref.ListingID {
		metrics.InteractionsTotal.WithLabelValues("stale").Inc()
		return c.JSON(http.StatusOK,
			discord.EphemeralReply("This listing is no longer available."))
	}

	if listing.Status != domain.StatusActive {
		metrics.InteractionsTotal.WithLabelValues("inactive").Inc()
		return c.JSON(http.StatusOK, discord.EphemeralReply(
			fmt.Sprintf("This listing is %s and cannot be purchased.", listing.Status)))
	}

	metrics.InteractionsTotal.WithLabelValues("resolved").Inc()
	return c.JSON(http.StatusOK, discord.EphemeralReply(
		fmt.Sprintf("Purchase request received for %s (seller @%s). Open a trade in game to complete it.",
			listing.Offering.Name, listing.Seller.Handle)))
}
