package handlers

import (
	"net/http"

	"github.com/vidhive/backend/internal/respond"
)

// SubscriptionHandler provides the subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionService
}

// Subscribe handles POST /api/v1/subscribe/{channelId}.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	created, err := h.Subscriptions.Subscribe(ctx, actorID(r), r.PathValue("channelId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if created {
		respond.OK(ctx, w, http.StatusCreated, "subscribed", subscriptionResponse{Subscribed: true})
		return
	}
	respond.OK(ctx, w, http.StatusOK, "already subscribed", subscriptionResponse{Subscribed: true})
}

// Unsubscribe handles DELETE /api/v1/unsubscribe/{channelId}.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := h.Subscriptions.Unsubscribe(ctx, actorID(r), r.PathValue("channelId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	message := "unsubscribed"
	if !removed {
		message = "not subscribed"
	}
	respond.OK(ctx, w, http.StatusOK, message, subscriptionResponse{Subscribed: false})
}

// Mine handles GET /api/v1/subscriptions/my.
func (h SubscriptionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.Subscriptions.ListMine(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "subscriptions fetched", list)
}

type subscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}
