// lfchat is an interactive terminal client for the lostfound daemon. It
// is the view layer over the sync engine: a line-based REPL that logs
// in, browses items and chats, opens one session at a time and sends
// text or image messages through the optimistic pipeline.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lostfound/pkg/client"
	"lostfound/pkg/config"
	"lostfound/pkg/engine"
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
)

type ui struct {
	api    *client.Client
	cfg    config.ClientConfig
	userID int64
	name   string

	ctrl   *engine.Controller
	router *engine.NotificationRouter
}

func main() {
	_ = godotenv.Load()
	urlFlag := flag.String("url", "", "daemon base URL (overrides LOSTFOUND_API_URL)")
	flag.Parse()
	logger.Init()

	cfg := clientConfig(*urlFlag)
	u := &ui{api: client.New(cfg.BaseURL), cfg: cfg}

	fmt.Printf("lfchat connected to %s\n", cfg.BaseURL)
	fmt.Println(`type "help" for commands`)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		u.dispatch(line)
	}
	u.shutdown()
}

func clientConfig(urlFlag string) config.ClientConfig {
	cfg := config.ClientConfig{BaseURL: "http://127.0.0.1:8080"}
	if v := os.Getenv("LOSTFOUND_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LOSTFOUND_MEDIA_PREFIX"); v != "" {
		cfg.MediaPrefix = v
	}
	if urlFlag != "" {
		cfg.BaseURL = urlFlag
	}
	return cfg
}

func (u *ui) dispatch(line string) {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]
	ctx := context.Background()

	var err error
	switch cmd {
	case "help":
		u.help()
	case "login":
		err = u.login(ctx, args)
	case "register":
		err = u.register(ctx, args)
	case "items":
		err = u.items(ctx, strings.Join(args, " "))
	case "chats":
		err = u.chats(ctx)
	case "open":
		err = u.open(ctx, args)
	case "close":
		err = u.close()
	case "send":
		err = u.send(ctx, strings.Join(args, " "))
	case "img":
		err = u.sendImage(ctx, args)
	case "resolve":
		err = u.resolve(ctx, args)
	case "notifs":
		err = u.notifs(ctx)
	case "read":
		err = u.markRead(ctx, args)
	case "click":
		err = u.click(ctx, args)
	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
	if err != nil {
		if msg, rejected := engine.ServerRejected(err); rejected {
			fmt.Printf("!! server: %s\n", msg)
		} else {
			fmt.Printf("!! %v\n", err)
		}
	}
}

func (u *ui) help() {
	fmt.Print(`  login <user> <pass>        authenticate
  register <user> <pass>     create an account and log in
  items [search]             list open items
  chats                      list your conversations
  open <lostID> <foundID>    open a chat session
  close                      close the session
  send <text>                send a text message
  img <path>                 send an image
  resolve confirm|reject     settle the open session's match
  notifs                     show notifications
  read <id>                  mark a notification read
  click <id>                 act on a notification
  quit
`)
}

func (u *ui) renderer() engine.Renderer {
	return engine.Renderer{
		OnMessages: func(bubbles []engine.Bubble) {
			fmt.Println("--- conversation ---")
			for _, b := range bubbles {
				who := b.SenderName
				if who == "" {
					who = fmt.Sprintf("user %d", b.SenderID)
				}
				if b.SenderID == u.userID {
					who = "you"
				}
				tag := ""
				switch b.State {
				case engine.BubbleUploading:
					tag = " [uploading]"
				case engine.BubbleFailed:
					tag = " [failed]"
				}
				if b.Image {
					fmt.Printf("  %s: <image %s>%s\n", who, b.Content, tag)
				} else {
					fmt.Printf("  %s: %s%s\n", who, b.Content, tag)
				}
			}
		},
		OnNotifications: func(list []models.Notification, unread int) {
			if unread > 0 {
				fmt.Printf("[%d unread notification(s)]\n", unread)
			}
		},
		OnToast: func(msg string, ok bool) {
			if ok {
				fmt.Printf(":: %s\n", msg)
			} else {
				fmt.Printf("!! %s\n", msg)
			}
		},
	}
}

func (u *ui) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <user> <pass>")
	}
	res, err := u.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	u.startSession(ctx, res)
	return nil
}

func (u *ui) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: register <user> <pass>")
	}
	res, err := u.api.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	u.startSession(ctx, res)
	return nil
}

func (u *ui) startSession(ctx context.Context, res client.LoginResult) {
	u.shutdown()
	u.userID, u.name = res.UserID, res.Username

	render := u.renderer()
	cache := engine.NewItemCache(u.api)
	u.ctrl = engine.NewController(u.api, render, cache, u.userID, u.cfg)
	u.router = engine.NewNotificationRouter(u.api, render, u.userID, u.cfg, u.ctrl.Open)
	u.router.Start(ctx)
	fmt.Printf("logged in as %s (id %d)\n", u.name, u.userID)
}

func (u *ui) requireLogin() error {
	if u.ctrl == nil {
		return fmt.Errorf("log in first")
	}
	return nil
}

func (u *ui) items(ctx context.Context, search string) error {
	items, err := u.api.Items(ctx, client.ItemQuery{Search: search})
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Printf("  %-8s %-5s %-10s %s (by %s)\n",
			it.ItemID, it.ItemType, it.ItemStatus, it.ItemName, it.PosterUsername)
	}
	return nil
}

func (u *ui) chats(ctx context.Context) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	chats, err := u.api.Chats(ctx, u.userID)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Println("  no active chats")
		return nil
	}
	for _, ch := range chats {
		fmt.Printf("  %s/%s  %s with %s: %s\n",
			ch.LostItemID, ch.FoundItemID, ch.LostItemName, ch.OtherUsername, ch.LastMessage)
	}
	return nil
}

func (u *ui) open(ctx context.Context, args []string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: open <lostID> <foundID>")
	}
	if err := u.ctrl.Open(ctx, args[0], args[1]); err != nil {
		return err
	}
	if u.ctrl.CanResolve() {
		fmt.Println(`(you may "resolve confirm" or "resolve reject")`)
	}
	return nil
}

func (u *ui) close() error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	u.ctrl.Close()
	return nil
}

func (u *ui) send(ctx context.Context, text string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	return u.ctrl.SendText(ctx, text)
}

func (u *ui) sendImage(ctx context.Context, args []string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: img <path>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return u.ctrl.SendImage(ctx, f, f.Name())
}

func (u *ui) resolve(ctx context.Context, args []string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: resolve confirm|reject")
	}
	return u.ctrl.Resolve(ctx, args[0], func() error {
		return u.chats(ctx)
	})
}

func (u *ui) notifs(ctx context.Context) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	list, err := u.api.Notifications(ctx, u.userID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("  no notifications")
		return nil
	}
	for _, n := range list {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Printf("  %s %4d %-12s %s\n", mark, n.NotificationID, n.NotificationType, n.Message)
	}
	return nil
}

func (u *ui) markRead(ctx context.Context, args []string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args)
	if err != nil {
		return err
	}
	u.router.Refresh(ctx)
	return u.router.MarkAsRead(ctx, id)
}

func (u *ui) click(ctx context.Context, args []string) error {
	if err := u.requireLogin(); err != nil {
		return err
	}
	id, err := parseID(args)
	if err != nil {
		return err
	}
	u.router.Refresh(ctx)
	return u.router.Click(ctx, id)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a notification id")
	}
	return strconv.ParseInt(args[0], 10, 64)
}

func (u *ui) shutdown() {
	if u.ctrl != nil {
		u.ctrl.Close()
	}
	if u.router != nil {
		u.router.Stop()
	}
	u.ctrl, u.router = nil, nil
}
