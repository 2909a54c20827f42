package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = fmt.Errorf("not found")

func userKey(id int64) string     { return fmt.Sprintf("user:%020d", id) }
func usernameKey(u string) string { return "username:" + u }

// CreateUser assigns a fresh user id, persists the user and the
// username index. Duplicate usernames are rejected.
func CreateUser(u models.User) (models.User, error) {
	if _, err := GetUserByName(u.Username); err == nil {
		return models.User{}, fmt.Errorf("username taken: %s", u.Username)
	}
	id, err := nextCounter("counter:user")
	if err != nil {
		return models.User{}, err
	}
	u.UserID = id
	data, err := json.Marshal(u)
	if err != nil {
		return models.User{}, err
	}
	if err := db.Set([]byte(userKey(id)), data, pebble.Sync); err != nil {
		return models.User{}, err
	}
	if err := db.Set([]byte(usernameKey(u.Username)), []byte(userKey(id)), pebble.Sync); err != nil {
		return models.User{}, err
	}
	logger.Info("user_created", "user", u.Username, "id", id)
	return u, nil
}

// GetUser looks a user up by id.
func GetUser(id int64) (models.User, error) {
	return getUserAt(userKey(id))
}

// GetUserByName looks a user up through the username index.
func GetUserByName(name string) (models.User, error) {
	val, closer, err := db.Get([]byte(usernameKey(name)))
	if err == pebble.ErrNotFound {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	key := string(val)
	_ = closer.Close()
	return getUserAt(key)
}

func getUserAt(key string) (models.User, error) {
	val, closer, err := db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	defer closer.Close()
	var u models.User
	if err := json.Unmarshal(val, &u); err != nil {
		return models.User{}, fmt.Errorf("corrupt user record at %s: %w", key, err)
	}
	return u, nil
}
