package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
	"lostfound/pkg/store"
	"lostfound/pkg/utils"
)

// RegisterUsers registers account endpoints.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/register", registerUser).Methods(http.MethodPost)
	r.HandleFunc("/login", login).Methods(http.MethodPost)
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte(pw))
	return hex.EncodeToString(sum[:])
}

func registerUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "username and password required")
		return
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	u, err := store.CreateUser(models.User{
		Username:     req.Username,
		PasswordHash: hashPassword(req.Password),
		Role:         role,
	})
	if err != nil {
		utils.JSONError(w, http.StatusConflict, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success": true, "userID": u.UserID, "username": u.Username,
	})
}

func login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := store.GetUserByName(req.Username)
	if err != nil || u.PasswordHash != hashPassword(req.Password) {
		logger.Warn("login_failed", "user", req.Username)
		utils.JSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"success": true, "userID": u.UserID, "username": u.Username, "role": u.Role,
	})
}
