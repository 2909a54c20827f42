package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
	"lostfound/pkg/store"
	"lostfound/pkg/utils"
)

const maxUploadBytes = 10 << 20

// RegisterChat registers the pairwise chat endpoints.
func RegisterChat(r *mux.Router) {
	r.HandleFunc("/messages/{lostItemID}/{foundItemID}", listPairMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/chats", listChats).Methods(http.MethodGet)
	r.HandleFunc("/chat/resolve", resolveChat).Methods(http.MethodPost)
}

func listPairMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	msgs, err := store.ListMessages(vars["lostItemID"], vars["foundItemID"])
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	names := map[int64]string{}
	for i, m := range msgs {
		name, ok := names[m.SenderID]
		if !ok {
			if u, uerr := store.GetUser(m.SenderID); uerr == nil {
				name = u.Username
			}
			names[m.SenderID] = name
		}
		msgs[i].SenderName = name
	}
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

// sendMessage accepts one multipart request carrying the sender, the
// item pair, literal content (may be empty for image-only sends) and an
// optional image. The stored media reference comes back in "content" so
// the client can reconcile its placeholder.
func sendMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	senderID, err := strconv.ParseInt(r.FormValue("senderID"), 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid senderID")
		return
	}
	lostID := r.FormValue("lostItemID")
	foundID := r.FormValue("foundItemID")
	content := r.FormValue("content")

	lost, err := store.GetItem(lostID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "related items do not exist")
		return
	}
	found, err := store.GetItem(foundID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "related items do not exist")
		return
	}
	receiverID := found.UserID
	if senderID != lost.UserID {
		receiverID = lost.UserID
	}

	stored := ""
	if file, hdr, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		stored, err = saveUpload(file, hdr.Filename)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		content = stored
	}
	if content == "" {
		utils.JSONError(w, http.StatusBadRequest, "message content must not be empty")
		return
	}

	msg := models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		LostItemID:  lostID,
		FoundItemID: foundID,
		Content:     content,
	}
	if _, err := store.SaveMessage(msg); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	messagesSent.Inc()

	aboutName := lost.ItemName
	if senderID == lost.UserID {
		aboutName = found.ItemName
	}
	enqueueNotification(receiverID, models.Notification{
		NotificationType: models.NotificationNewMessage,
		Message:          fmt.Sprintf("New message about item %q.", aboutName),
		RelatedItemID1:   lostID,
		RelatedItemID2:   foundID,
	})

	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success": true, "content": content,
	})
}

// saveUpload writes the image under the uploads dir and returns the
// media reference ("uploads/<name>") stored as message content.
func saveUpload(src io.Reader, original string) (string, error) {
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(original))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d%s", time.Now().UTC().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(uploadsDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes)); err != nil {
		return "", err
	}
	return "uploads/" + name, nil
}

func listChats(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(r.URL.Query().Get("userID"), 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid userID")
		return
	}
	pairs, err := store.ListChatPairs(uid)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := []models.ChatSummary{}
	for _, p := range pairs {
		lost, lerr := store.GetItem(p[0])
		found, ferr := store.GetItem(p[1])
		if lerr != nil || ferr != nil {
			continue
		}
		// resolved or deleted conversations drop off the chat list
		if lost.ItemStatus == models.ItemStatusResolved ||
			lost.ItemStatus == models.ItemStatusDeleted ||
			found.ItemStatus == models.ItemStatusDeleted {
			continue
		}
		cs := models.ChatSummary{
			LostItemID:   lost.ItemID,
			FoundItemID:  found.ItemID,
			LostItemName: lost.ItemName,
			LostUserID:   lost.UserID,
			FoundUserID:  found.UserID,
		}
		otherID := found.UserID
		if uid != lost.UserID {
			otherID = lost.UserID
		}
		cs.OtherUserID = otherID
		if u, uerr := store.GetUser(otherID); uerr == nil {
			cs.OtherUsername = u.Username
		}
		if last, merr := store.LastMessage(p[0], p[1]); merr == nil {
			cs.LastMessage = last.Content
			cs.LastMessageTime = last.SentTime
		}
		out = append(out, cs)
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// resolveChat settles a claim conversation. Only the lost-item owner may
// resolve; "confirm" marks both items resolved, "reject" reopens them
// (deleting a placeholder lost item the claim flow created).
func resolveChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64  `json:"userID"`
		LostItemID  string `json:"lostItemID"`
		FoundItemID string `json:"foundItemID"`
		Action      string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == 0 || req.LostItemID == "" || req.FoundItemID == "" || req.Action == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing parameters")
		return
	}
	lost, err := store.GetItem(req.LostItemID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "lost item does not exist")
		return
	}
	found, err := store.GetItem(req.FoundItemID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "found item does not exist")
		return
	}
	if req.UserID != lost.UserID {
		utils.JSONError(w, http.StatusForbidden, "only the lost-item owner can resolve")
		return
	}

	var message string
	switch req.Action {
	case "confirm":
		lost.ItemStatus = models.ItemStatusResolved
		found.ItemStatus = models.ItemStatusResolved
		message = "item marked as recovered"
	case "reject":
		if lost.ClaimPlaceholder {
			lost.ItemStatus = models.ItemStatusDeleted
		} else {
			lost.ItemStatus = models.ItemStatusOpen
		}
		lost.MatchItemID = ""
		found.ItemStatus = models.ItemStatusOpen
		found.MatchItemID = ""
		message = "match cancelled"
	default:
		utils.JSONError(w, http.StatusBadRequest, "invalid action")
		return
	}
	if err := store.PutItem(lost); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := store.PutItem(found); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("chat_resolved", "lost", lost.ItemID, "found", found.ItemID, "action", req.Action)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success": true, "message": message,
	})
}
