package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lostfound/pkg/models"
	"lostfound/pkg/store"
	"lostfound/pkg/utils"
)

// RegisterNotifications registers the notification feed endpoints.
func RegisterNotifications(r *mux.Router) {
	r.HandleFunc("/notifications/{userID}", listNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/mark-read/{id}", markNotificationRead).Methods(http.MethodPost)
}

func listNotifications(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	out, err := store.ListNotifications(uid)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if out == nil {
		out = []models.Notification{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// markNotificationRead flips one notification to read. Marking an
// already-read notification succeeds without a write.
func markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	var req struct {
		UserID int64 `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		utils.JSONError(w, http.StatusBadRequest, "userID missing")
		return
	}
	already, err := store.MarkNotificationRead(req.UserID, id)
	if err == store.ErrNotFound {
		utils.JSONError(w, http.StatusNotFound, "notification does not exist or is not yours")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	msg := "notification marked as read"
	if already {
		msg = "notification was already read"
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success": true, "message": msg,
	})
}
