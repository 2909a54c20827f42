// Package engine is the client-side chat-session and notification
// synchronization core: a single-session controller with a cancellable
// message poll loop, an optimistic send pipeline and an independent
// notification router. It talks to the daemon through the API interface
// and publishes plain data through Renderer callbacks; it never touches
// presentation.
package engine

import (
	"context"

	"lostfound/pkg/client"
	"lostfound/pkg/models"
)

// API is the slice of the daemon's surface the engine consumes.
// *client.Client satisfies it.
type API interface {
	Messages(ctx context.Context, lostItemID, foundItemID string) ([]models.Message, error)
	SendMessage(ctx context.Context, req client.SendMessageRequest) (client.SendMessageResponse, error)
	ResolveChat(ctx context.Context, userID int64, lostItemID, foundItemID, action string) (string, error)
	Notifications(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID int64) error
	Items(ctx context.Context, q client.ItemQuery) ([]models.Item, error)
}
