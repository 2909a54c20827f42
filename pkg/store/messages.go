package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

func pairID(lost, found string) string { return lost + "|" + found }

func msgPrefix(lost, found string) string {
	return "msg:" + pairID(lost, found) + ":"
}

// SaveMessage appends a message to the conversation for the item pair.
// Key format: msg:<lost>|<found>:<unix_nano_padded>-<seq>, so a prefix
// scan yields server-defined ascending time order. It also maintains the
// chat indexes for both participants.
func SaveMessage(msg models.Message) (models.Message, error) {
	if db == nil {
		return models.Message{}, fmt.Errorf("pebble not opened; call store.Open first")
	}
	ts := time.Now().UTC()
	if msg.SentTime.IsZero() {
		msg.SentTime = ts
	}
	s := atomic.AddUint64(&seq, 1)
	msg.MessageID = int64(s)
	key := fmt.Sprintf("%s%020d-%06d", msgPrefix(msg.LostItemID, msg.FoundItemID), ts.UnixNano(), s)

	data, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_message_failed", "pair", pairID(msg.LostItemID, msg.FoundItemID), "error", err)
		return models.Message{}, err
	}

	// chat indexes: one per participant plus a global pair index for the
	// retention scanner.
	pair := pairID(msg.LostItemID, msg.FoundItemID)
	for _, uid := range []int64{msg.SenderID, msg.ReceiverID} {
		if uid == 0 {
			continue
		}
		ck := fmt.Sprintf("chat:%020d:%s", uid, pair)
		if err := db.Set([]byte(ck), []byte("1"), pebble.Sync); err != nil {
			return models.Message{}, err
		}
	}
	if err := db.Set([]byte("pair:"+pair), []byte("1"), pebble.Sync); err != nil {
		return models.Message{}, err
	}
	logger.Info("message_saved", "pair", pair, "sender", msg.SenderID)
	return msg, nil
}

// ListMessages returns the conversation for the pair in ascending time
// order.
func ListMessages(lost, found string) ([]models.Message, error) {
	var out []models.Message
	err := scanPrefix(msgPrefix(lost, found), func(_, val []byte) error {
		var m models.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return nil
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// LastMessage returns the most recent message for the pair, or ErrNotFound.
func LastMessage(lost, found string) (models.Message, error) {
	msgs, err := ListMessages(lost, found)
	if err != nil {
		return models.Message{}, err
	}
	if len(msgs) == 0 {
		return models.Message{}, ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

// ListChatPairs returns the item pairs the user has exchanged messages on.
func ListChatPairs(userID int64) ([][2]string, error) {
	prefix := fmt.Sprintf("chat:%020d:", userID)
	var out [][2]string
	err := scanPrefix(prefix, func(key, _ []byte) error {
		pair := strings.TrimPrefix(string(key), prefix)
		parts := strings.SplitN(pair, "|", 2)
		if len(parts) == 2 {
			out = append(out, [2]string{parts[0], parts[1]})
		}
		return nil
	})
	return out, err
}

// AllChatPairs returns every item pair that has at least one message.
func AllChatPairs() ([][2]string, error) {
	var out [][2]string
	err := scanPrefix("pair:", func(key, _ []byte) error {
		pair := strings.TrimPrefix(string(key), "pair:")
		parts := strings.SplitN(pair, "|", 2)
		if len(parts) == 2 {
			out = append(out, [2]string{parts[0], parts[1]})
		}
		return nil
	})
	return out, err
}

// DeleteMessages drops the whole conversation for the pair and returns
// how many records were removed. The chat indexes stay; an empty
// conversation lists as empty.
func DeleteMessages(lost, found string) (int, error) {
	return deletePrefix(msgPrefix(lost, found))
}
