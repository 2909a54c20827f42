package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

func notifKey(userID, id int64) string {
	return fmt.Sprintf("notif:%020d:%020d", userID, id)
}

// SaveNotification assigns a notification id and persists it for the
// user. Ids are monotonic, so key order equals creation order.
func SaveNotification(userID int64, n models.Notification) (models.Notification, error) {
	id, err := nextCounter("counter:notif")
	if err != nil {
		return models.Notification{}, err
	}
	n.NotificationID = id
	if n.CreationTime.IsZero() {
		n.CreationTime = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return models.Notification{}, err
	}
	if err := db.Set([]byte(notifKey(userID, id)), data, pebble.Sync); err != nil {
		logger.Error("save_notification_failed", "user", userID, "error", err)
		return models.Notification{}, err
	}
	logger.Info("notification_saved", "user", userID, "id", id, "type", n.NotificationType)
	return n, nil
}

// ListNotifications returns the user's notifications, newest first.
func ListNotifications(userID int64) ([]models.Notification, error) {
	prefix := fmt.Sprintf("notif:%020d:", userID)
	var out []models.Notification
	err := scanPrefix(prefix, func(_, val []byte) error {
		var n models.Notification
		if err := json.Unmarshal(val, &n); err != nil {
			return nil
		}
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// key order is ascending creation; the API contract is newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetNotification fetches one notification owned by the user.
func GetNotification(userID, id int64) (models.Notification, error) {
	val, closer, err := db.Get([]byte(notifKey(userID, id)))
	if err == pebble.ErrNotFound {
		return models.Notification{}, ErrNotFound
	}
	if err != nil {
		return models.Notification{}, err
	}
	defer closer.Close()
	var n models.Notification
	if err := json.Unmarshal(val, &n); err != nil {
		return models.Notification{}, fmt.Errorf("corrupt notification %d: %w", id, err)
	}
	return n, nil
}

// MarkNotificationRead flips IsRead for the user's notification. It
// reports whether the record was already read.
func MarkNotificationRead(userID, id int64) (alreadyRead bool, err error) {
	n, err := GetNotification(userID, id)
	if err != nil {
		return false, err
	}
	if n.IsRead {
		return true, nil
	}
	n.IsRead = true
	data, err := json.Marshal(n)
	if err != nil {
		return false, err
	}
	if err := db.Set([]byte(notifKey(userID, id)), data, pebble.Sync); err != nil {
		return false, err
	}
	return false, nil
}

// PurgeReadNotifications removes read notifications created before the
// cutoff, across all users. Returns how many were removed.
func PurgeReadNotifications(cutoff time.Time) (int, error) {
	var victims [][]byte
	err := scanPrefix("notif:", func(key, val []byte) error {
		var n models.Notification
		if err := json.Unmarshal(val, &n); err != nil {
			return nil
		}
		if n.IsRead && n.CreationTime.Before(cutoff) {
			victims = append(victims, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range victims {
		if err := db.Delete(k, pebble.Sync); err != nil {
			return 0, err
		}
	}
	return len(victims), nil
}
