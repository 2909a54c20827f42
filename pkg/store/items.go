package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

func itemKey(id string) string { return "item:" + id }

// CreateItem assigns an item id ("L042" / "F007" depending on type) and
// persists the item.
func CreateItem(it models.Item) (models.Item, error) {
	prefix := "L"
	if it.ItemType == models.ItemTypeFound {
		prefix = "F"
	}
	n, err := nextCounter("counter:item:" + prefix)
	if err != nil {
		return models.Item{}, err
	}
	it.ItemID = fmt.Sprintf("%s%03d", prefix, n)
	if it.ItemStatus == "" {
		it.ItemStatus = models.ItemStatusOpen
	}
	if err := PutItem(it); err != nil {
		return models.Item{}, err
	}
	logger.Info("item_created", "item", it.ItemID, "type", it.ItemType, "user", it.UserID)
	return it, nil
}

// PutItem writes an item record as-is.
func PutItem(it models.Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return err
	}
	return db.Set([]byte(itemKey(it.ItemID)), data, pebble.Sync)
}

// GetItem looks an item up by id.
func GetItem(id string) (models.Item, error) {
	val, closer, err := db.Get([]byte(itemKey(id)))
	if err == pebble.ErrNotFound {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, err
	}
	defer closer.Close()
	var it models.Item
	if err := json.Unmarshal(val, &it); err != nil {
		return models.Item{}, fmt.Errorf("corrupt item record %s: %w", id, err)
	}
	return it, nil
}

// ItemFilter narrows ListItems results. Zero values match everything.
type ItemFilter struct {
	Type   string
	Status string
	Search string
	UserID int64
}

// ListItems scans all items and applies the filter. Deleted items are
// excluded unless the filter asks for them explicitly.
func ListItems(f ItemFilter) ([]models.Item, error) {
	search := strings.ToLower(f.Search)
	var out []models.Item
	err := scanPrefix("item:", func(_, val []byte) error {
		var it models.Item
		if err := json.Unmarshal(val, &it); err != nil {
			return nil // skip corrupt rows, keep listing
		}
		if it.ItemStatus == models.ItemStatusDeleted && f.Status != models.ItemStatusDeleted {
			return nil
		}
		if f.Type != "" && it.ItemType != f.Type {
			return nil
		}
		if f.Status != "" && it.ItemStatus != f.Status {
			return nil
		}
		if f.UserID != 0 && it.UserID != f.UserID {
			return nil
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.ItemName), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			return nil
		}
		out = append(out, it)
		return nil
	})
	return out, err
}
