package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lostfound/pkg/client"
	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

func init() {
	logger.Init()
}

// fakeAPI is an in-memory daemon double. Behavior is steered per test
// through the err fields; call counters verify request discipline.
type fakeAPI struct {
	mu sync.Mutex

	items     []models.Item
	itemCalls int

	messages map[string][]models.Message
	msgCalls map[string]int
	msgErr   error

	sendResp  client.SendMessageResponse
	sendErr   error
	sendCalls int

	resolveMsg string
	resolveErr error

	notifs     []models.Notification
	notifErr   error
	notifCalls int
	markCalls  int
	markErr    error

	// markStarted/markGate, when set before use, let a test observe a
	// mark-read entering flight and hold it there.
	markStarted chan struct{}
	markGate    chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: make(map[string][]models.Message),
		msgCalls: make(map[string]int),
	}
}

func pairKey(lost, found string) string { return lost + "|" + found }

func (f *fakeAPI) Items(ctx context.Context, q client.ItemQuery) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	return append([]models.Item(nil), f.items...), nil
}

func (f *fakeAPI) Messages(ctx context.Context, lost, found string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgCalls[pairKey(lost, found)]++
	if f.msgErr != nil {
		return nil, f.msgErr
	}
	return append([]models.Message(nil), f.messages[pairKey(lost, found)]...), nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, req client.SendMessageRequest) (client.SendMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return client.SendMessageResponse{}, f.sendErr
	}
	resp := f.sendResp
	if resp.Content == "" {
		resp = client.SendMessageResponse{Success: true, Content: req.Content}
	}
	key := pairKey(req.LostItemID, req.FoundItemID)
	f.messages[key] = append(f.messages[key], models.Message{
		MessageID: int64(len(f.messages[key]) + 1),
		SenderID:  req.SenderID,
		Content:   resp.Content,
		SentTime:  time.Now(),
	})
	return resp, nil
}

func (f *fakeAPI) ResolveChat(ctx context.Context, userID int64, lost, found, action string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if f.resolveMsg != "" {
		return f.resolveMsg, nil
	}
	return "resolved", nil
}

func (f *fakeAPI) Notifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifCalls++
	if f.notifErr != nil {
		return nil, f.notifErr
	}
	return append([]models.Notification(nil), f.notifs...), nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	if f.markStarted != nil {
		f.markStarted <- struct{}{}
	}
	if f.markGate != nil {
		<-f.markGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.notifs {
		if f.notifs[i].NotificationID == id {
			f.notifs[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeAPI) notifCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifCalls
}

func (f *fakeAPI) calls(lost, found string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgCalls[pairKey(lost, found)]
}

func (f *fakeAPI) setMsgErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgErr = err
}

// recorder captures every render callback for assertions.
type recorder struct {
	mu      sync.Mutex
	renders [][]Bubble
	badges  []int
	toasts  []string
}

func (r *recorder) renderer() Renderer {
	return Renderer{
		OnMessages: func(bubbles []Bubble) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.renders = append(r.renders, append([]Bubble(nil), bubbles...))
		},
		OnNotifications: func(list []models.Notification, unread int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.badges = append(r.badges, unread)
		},
		OnToast: func(msg string, ok bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.toasts = append(r.toasts, msg)
		},
	}
}

func (r *recorder) lastRender() []Bubble {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.renders) == 0 {
		return nil
	}
	return r.renders[len(r.renders)-1]
}

func (r *recorder) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renders)
}

func (r *recorder) toastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}

func (r *recorder) lastBadge() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.badges) == 0 {
		return -1
	}
	return r.badges[len(r.badges)-1]
}

// testItems returns a lost/found pair: lost L001 owned by owner, found
// F001 owned by finder.
func testItems(ownerID, finderID int64) []models.Item {
	return []models.Item{
		{ItemID: "L001", ItemType: models.ItemTypeLost, ItemName: "black wallet",
			ItemStatus: models.ItemStatusMatching, UserID: ownerID},
		{ItemID: "F001", ItemType: models.ItemTypeFound, ItemName: "wallet near gate",
			ItemStatus: models.ItemStatusMatching, UserID: finderID},
	}
}

// newTestController wires a controller for userID with the given poll
// interval.
func newTestController(api *fakeAPI, rec *recorder, userID int64, interval string) *Controller {
	cfg := config.ClientConfig{MessagePollInterval: interval}
	return NewController(api, rec.renderer(), NewItemCache(api), userID, cfg)
}

// seed builds canonical messages from one sender, in order.
func seed(sender int64, contents ...string) []models.Message {
	out := make([]models.Message, 0, len(contents))
	for _, c := range contents {
		out = append(out, models.Message{SenderID: sender, Content: c, SentTime: time.Now()})
	}
	return out
}

var errBoom = fmt.Errorf("boom")
