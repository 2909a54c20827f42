package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lostfound/pkg/models"
	"lostfound/pkg/store"
	"lostfound/pkg/utils"
)

// RegisterItems registers item report endpoints.
func RegisterItems(r *mux.Router) {
	r.HandleFunc("/items", listItems).Methods(http.MethodGet)
	r.HandleFunc("/items", createItem).Methods(http.MethodPost)
	r.HandleFunc("/items/user/{userID}", listUserItems).Methods(http.MethodGet)
	r.HandleFunc("/claim/initiate", initiateClaim).Methods(http.MethodPost)
}

// withPoster fills PosterUsername from the owning user record.
func withPoster(items []models.Item) []models.Item {
	names := map[int64]string{}
	for i, it := range items {
		name, ok := names[it.UserID]
		if !ok {
			if u, err := store.GetUser(it.UserID); err == nil {
				name = u.Username
			}
			names[it.UserID] = name
		}
		items[i].PosterUsername = name
	}
	return items
}

func listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := store.ListItems(store.ItemFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, withPoster(items))
}

func createItem(w http.ResponseWriter, r *http.Request) {
	var it models.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if it.ItemType != models.ItemTypeLost && it.ItemType != models.ItemTypeFound {
		utils.JSONError(w, http.StatusBadRequest, "type must be Lost or Found")
		return
	}
	if it.ItemName == "" || it.UserID == 0 {
		utils.JSONError(w, http.StatusBadRequest, "name and userID required")
		return
	}
	it.ItemStatus = models.ItemStatusOpen
	it.CreationTime = time.Now().UTC()
	created, err := store.CreateItem(it)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, created)
}

func listUserItems(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	q := r.URL.Query()
	items, err := store.ListItems(store.ItemFilter{
		UserID: uid,
		Type:   q.Get("type"),
		Status: q.Get("status"),
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, withPoster(items))
}

// initiateClaim opens a conversation between a claimant and the finder
// of a found item. Without an existing lost report a placeholder lost
// item is created to carry the chat; both items move to "matching" and
// both parties get an actionable match notification.
func initiateClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          int64  `json:"userID"`
		FoundItemID     string `json:"foundItemID"`
		MatchLostItemID string `json:"matchLostItemID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == 0 || req.FoundItemID == "" {
		utils.JSONError(w, http.StatusBadRequest, "userID and foundItemID required")
		return
	}
	found, err := store.GetItem(req.FoundItemID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "found item does not exist")
		return
	}
	if found.UserID == req.UserID {
		utils.JSONError(w, http.StatusForbidden, "cannot claim your own found item")
		return
	}
	finder, err := store.GetUser(found.UserID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "finder account missing")
		return
	}
	claimant, err := store.GetUser(req.UserID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "claimant account missing")
		return
	}

	var lost models.Item
	if req.MatchLostItemID == "" {
		lost, err = store.CreateItem(models.Item{
			ItemType:         models.ItemTypeLost,
			ItemName:         fmt.Sprintf("Claim: %s", found.ItemName),
			Description:      fmt.Sprintf("Auto-created to let user %d talk to finder %d about item %s.", req.UserID, found.UserID, found.ItemID),
			UserID:           req.UserID,
			ItemStatus:       models.ItemStatusMatching,
			ClaimPlaceholder: true,
			CreationTime:     time.Now().UTC(),
		})
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		lost, err = store.GetItem(req.MatchLostItemID)
		if err != nil || lost.UserID != req.UserID {
			utils.JSONError(w, http.StatusForbidden, "selected lost item is invalid or not yours")
			return
		}
	}

	lost.ItemStatus = models.ItemStatusMatching
	lost.MatchItemID = found.ItemID
	found.ItemStatus = models.ItemStatusMatching
	found.MatchItemID = lost.ItemID
	if err := store.PutItem(lost); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := store.PutItem(found); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	enqueueNotification(req.UserID, models.Notification{
		NotificationType: models.NotificationMatch,
		Message:          fmt.Sprintf("You claimed %q; a chat with finder %q is now open.", found.ItemName, finder.Username),
		RelatedItemID1:   lost.ItemID,
		RelatedItemID2:   found.ItemID,
	})
	enqueueNotification(found.UserID, models.Notification{
		NotificationType: models.NotificationMatch,
		Message:          fmt.Sprintf("User %q claimed your found item %q. Open the chat to confirm.", claimant.Username, found.ItemName),
		RelatedItemID1:   lost.ItemID,
		RelatedItemID2:   found.ItemID,
	})

	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "claim opened",
		"lostItemID":  lost.ItemID,
		"foundItemID": found.ItemID,
	})
}
