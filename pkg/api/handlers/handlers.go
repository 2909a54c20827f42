// Package handlers implements the JSON endpoints of the lost-and-found
// API: accounts, item reports, the claim flow, the pairwise chat and the
// notification feed.
package handlers

import (
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
	"lostfound/pkg/notifyq"
	"lostfound/pkg/store"
)

var (
	uploadsDir = "./uploads"
	notifQueue *notifyq.Queue
)

// Configure sets the uploads directory and the notification fanout
// queue. Call once at startup before serving.
func Configure(dir string, q *notifyq.Queue) {
	if dir != "" {
		uploadsDir = dir
	}
	notifQueue = q
}

// UploadsDir returns the directory stored chat media is written to.
func UploadsDir() string { return uploadsDir }

// enqueueNotification hands a notification to the async queue, falling
// back to a synchronous write when no queue is configured (tests) or
// the queue is saturated. Notification loss is acceptable; blocking a
// send is not.
func enqueueNotification(userID int64, n models.Notification) {
	if notifQueue != nil {
		if err := notifQueue.TryEnqueue(notifyq.Op{UserID: userID, Notification: n}); err == nil {
			notificationsEnqueued.Inc()
			return
		} else if err == notifyq.ErrQueueFull {
			logger.Warn("notification_dropped", "user", userID, "reason", "queue_full")
			return
		}
	}
	if _, err := store.SaveNotification(userID, n); err != nil {
		logger.Error("notification_write_failed", "user", userID, "error", err)
	}
}
