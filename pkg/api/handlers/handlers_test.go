package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lostfound/pkg/api"
	"lostfound/pkg/api/handlers"
	"lostfound/pkg/client"
	"lostfound/pkg/models"
	"lostfound/pkg/store"
)

// newTestEnv spins up the full router over a fresh store and returns a
// typed client against it.
func newTestEnv(t *testing.T) (*client.Client, string) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	uploads := filepath.Join(t.TempDir(), "uploads")
	handlers.Configure(uploads, nil)

	srv := httptest.NewServer(api.Handler(uploads))
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return client.New(srv.URL), uploads
}

func mustRegister(t *testing.T, c *client.Client, name string) client.LoginResult {
	t.Helper()
	res, err := c.Register(context.Background(), name, "secret")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return res
}

func mustItem(t *testing.T, c *client.Client, it models.Item) models.Item {
	t.Helper()
	created, err := c.CreateItem(context.Background(), it)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return created
}

func mustClaim(t *testing.T, c *client.Client, userID int64, foundID, lostID string) client.ClaimResult {
	t.Helper()
	res, err := c.InitiateClaim(context.Background(), userID, foundID, lostID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	reg := mustRegister(t, c, "ning")
	if reg.UserID == 0 {
		t.Fatalf("no user id assigned")
	}

	if _, err := c.Register(ctx, "ning", "again"); err == nil {
		t.Fatalf("duplicate username accepted")
	}

	login, err := c.Login(ctx, "ning", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.UserID != reg.UserID || login.Role != "user" {
		t.Fatalf("login result %+v", login)
	}

	_, err = c.Login(ctx, "ning", "wrong")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("bad password: got %v", err)
	}
}

func TestClaimCreatesPlaceholderAndNotifiesBothParties(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	claimant := mustRegister(t, c, "alice")
	finder := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "silver watch", UserID: finder.UserID})

	res := mustClaim(t, c, claimant.UserID, found.ItemID, "")
	if res.FoundItemID != found.ItemID || res.LostItemID == "" {
		t.Fatalf("claim result %+v", res)
	}

	lost, err := store.GetItem(res.LostItemID)
	if err != nil {
		t.Fatalf("placeholder missing: %v", err)
	}
	if !lost.ClaimPlaceholder || lost.ItemStatus != models.ItemStatusMatching {
		t.Fatalf("placeholder %+v", lost)
	}
	if lost.MatchItemID != found.ItemID {
		t.Fatalf("match link not set: %+v", lost)
	}

	for _, uid := range []int64{claimant.UserID, finder.UserID} {
		notifs, err := c.Notifications(ctx, uid)
		if err != nil {
			t.Fatalf("notifications for %d: %v", uid, err)
		}
		if len(notifs) != 1 || !notifs[0].Actionable() {
			t.Fatalf("user %d notifications: %+v", uid, notifs)
		}
		if notifs[0].RelatedItemID1 != res.LostItemID || notifs[0].RelatedItemID2 != found.ItemID {
			t.Fatalf("related pair wrong: %+v", notifs[0])
		}
	}
}

func TestCannotClaimOwnItem(t *testing.T) {
	c, _ := newTestEnv(t)

	finder := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: finder.UserID})

	_, err := c.InitiateClaim(context.Background(), finder.UserID, found.ItemID, "")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestSendAndListMessages(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	resp, err := c.SendMessage(ctx, client.SendMessageRequest{
		SenderID: alice.UserID, LostItemID: pair.LostItemID, FoundItemID: pair.FoundItemID,
		Content: "is it engraved?",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Content != "is it engraved?" {
		t.Fatalf("echo content: %q", resp.Content)
	}

	msgs, err := c.Messages(ctx, pair.LostItemID, pair.FoundItemID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderID != alice.UserID {
		t.Fatalf("messages %+v", msgs)
	}
	if msgs[0].SenderName != "alice" {
		t.Fatalf("sender name not filled: %+v", msgs[0])
	}

	// The receiver got a new-message notification on top of the claim one.
	notifs, err := c.Notifications(ctx, bob.UserID)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(notifs) != 2 || notifs[0].NotificationType != models.NotificationNewMessage {
		t.Fatalf("expected new_message first, got %+v", notifs)
	}
}

func TestSendRejectsEmptyAndUnknownPairs(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	_, err := c.SendMessage(ctx, client.SendMessageRequest{
		SenderID: alice.UserID, LostItemID: pair.LostItemID, FoundItemID: pair.FoundItemID,
	})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("empty send: got %v", err)
	}

	_, err = c.SendMessage(ctx, client.SendMessageRequest{
		SenderID: alice.UserID, LostItemID: "L999", FoundItemID: "F999", Content: "hi",
	})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("unknown pair: got %v", err)
	}
}

func TestSendImageStoresUnderUploads(t *testing.T) {
	c, uploads := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	resp, err := c.SendMessage(ctx, client.SendMessageRequest{
		SenderID: alice.UserID, LostItemID: pair.LostItemID, FoundItemID: pair.FoundItemID,
		ImagePath: "proof.png", ImageReader: bytes.NewReader([]byte("png bytes")),
	})
	if err != nil {
		t.Fatalf("send image: %v", err)
	}
	if !strings.HasPrefix(resp.Content, "uploads/") {
		t.Fatalf("content is not a media reference: %q", resp.Content)
	}

	stored := filepath.Join(uploads, strings.TrimPrefix(resp.Content, "uploads/"))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(data) != "png bytes" {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestChatsListSkipsResolvedConversations(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	if _, err := c.SendMessage(ctx, client.SendMessageRequest{
		SenderID: alice.UserID, LostItemID: pair.LostItemID, FoundItemID: pair.FoundItemID,
		Content: "hello",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	chats, err := c.Chats(ctx, bob.UserID)
	if err != nil {
		t.Fatalf("chats: %v", err)
	}
	if len(chats) != 1 || chats[0].OtherUsername != "alice" || chats[0].LastMessage != "hello" {
		t.Fatalf("chats %+v", chats)
	}

	if _, err := c.ResolveChat(ctx, alice.UserID, pair.LostItemID, pair.FoundItemID, "confirm"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	chats, err = c.Chats(ctx, bob.UserID)
	if err != nil {
		t.Fatalf("chats after resolve: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("resolved conversation still listed: %+v", chats)
	}
}

func TestResolveConfirmMarksBothItemsResolved(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	// the finder is not the lost-item owner
	_, err := c.ResolveChat(ctx, bob.UserID, pair.LostItemID, pair.FoundItemID, "confirm")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("non-owner resolve: got %v", err)
	}

	msg, err := c.ResolveChat(ctx, alice.UserID, pair.LostItemID, pair.FoundItemID, "confirm")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if msg == "" {
		t.Fatalf("no outcome message")
	}

	for _, id := range []string{pair.LostItemID, pair.FoundItemID} {
		it, err := store.GetItem(id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if it.ItemStatus != models.ItemStatusResolved {
			t.Fatalf("%s status %s", id, it.ItemStatus)
		}
	}
}

func TestResolveRejectDeletesPlaceholder(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, "")

	if _, err := c.ResolveChat(ctx, alice.UserID, pair.LostItemID, pair.FoundItemID, "reject"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	lost, err := store.GetItem(pair.LostItemID)
	if err != nil {
		t.Fatalf("get lost: %v", err)
	}
	if lost.ItemStatus != models.ItemStatusDeleted {
		t.Fatalf("placeholder should be deleted, got %s", lost.ItemStatus)
	}
	foundAfter, err := store.GetItem(pair.FoundItemID)
	if err != nil {
		t.Fatalf("get found: %v", err)
	}
	if foundAfter.ItemStatus != models.ItemStatusOpen || foundAfter.MatchItemID != "" {
		t.Fatalf("found item should reopen unlinked, got %+v", foundAfter)
	}
}

func TestResolveRejectReopensRealLostItem(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	lost := mustItem(t, c, models.Item{ItemType: models.ItemTypeLost, ItemName: "my watch", UserID: alice.UserID})
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	pair := mustClaim(t, c, alice.UserID, found.ItemID, lost.ItemID)

	if _, err := c.ResolveChat(ctx, alice.UserID, pair.LostItemID, pair.FoundItemID, "reject"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	after, err := store.GetItem(lost.ItemID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.ItemStatus != models.ItemStatusOpen {
		t.Fatalf("real lost item should reopen, got %s", after.ItemStatus)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	bob := mustRegister(t, c, "bob")
	found := mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "watch", UserID: bob.UserID})
	mustClaim(t, c, alice.UserID, found.ItemID, "")

	notifs, err := c.Notifications(ctx, bob.UserID)
	if err != nil || len(notifs) != 1 {
		t.Fatalf("notifications: %v %+v", err, notifs)
	}
	id := notifs[0].NotificationID

	if err := c.MarkNotificationRead(ctx, id, bob.UserID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// marking twice succeeds; the server treats it as already read
	if err := c.MarkNotificationRead(ctx, id, bob.UserID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}

	notifs, err = c.Notifications(ctx, bob.UserID)
	if err != nil || !notifs[0].IsRead {
		t.Fatalf("notification still unread: %v %+v", err, notifs)
	}

	// a notification you do not own is a 404
	err = c.MarkNotificationRead(ctx, id, alice.UserID+bob.UserID+1)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("foreign mark read: got %v", err)
	}
}

func TestItemListingFilters(t *testing.T) {
	c, _ := newTestEnv(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "alice")
	mustItem(t, c, models.Item{ItemType: models.ItemTypeLost, ItemName: "Blue Umbrella", UserID: alice.UserID})
	mustItem(t, c, models.Item{ItemType: models.ItemTypeFound, ItemName: "black glove", UserID: alice.UserID})

	lostOnly, err := c.Items(ctx, client.ItemQuery{Type: models.ItemTypeLost})
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(lostOnly) != 1 || lostOnly[0].ItemName != "Blue Umbrella" {
		t.Fatalf("type filter: %+v", lostOnly)
	}
	if lostOnly[0].PosterUsername != "alice" {
		t.Fatalf("poster username not filled: %+v", lostOnly[0])
	}

	mine, err := c.UserItems(ctx, alice.UserID, "")
	if err != nil {
		t.Fatalf("user items: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("user items: %+v", mine)
	}
}
