package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEffectivePrecedence(t *testing.T) {
	path := writeConfig(t, `
server:
  address: "127.0.0.1"
  port: 9000
  db_path: /data/db
`)

	// file only
	eff, err := LoadEffective(Flags{Addr: ":8080", DB: "./.database", Config: path, Set: map[string]bool{"config": true}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if eff.Addr != "127.0.0.1:9000" || eff.DBPath != "/data/db" || eff.Source != "config" {
		t.Fatalf("effective %+v", eff)
	}

	// env overlays the file
	t.Setenv("LOSTFOUND_DB_PATH", "/env/db")
	eff, err = LoadEffective(Flags{Addr: ":8080", DB: "./.database", Config: path, Set: map[string]bool{"config": true}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if eff.DBPath != "/env/db" || eff.Source != "env" {
		t.Fatalf("env overlay %+v", eff)
	}

	// explicit flags beat both
	eff, err = LoadEffective(Flags{Addr: ":7777", DB: "/flag/db", Config: path,
		Set: map[string]bool{"config": true, "addr": true, "db": true}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if eff.Addr != ":7777" || eff.DBPath != "/flag/db" {
		t.Fatalf("flag overlay %+v", eff)
	}
}

func TestMissingConfigFileIsNotFatal(t *testing.T) {
	eff, err := LoadEffective(Flags{Addr: ":8080", DB: "./.database",
		Config: filepath.Join(t.TempDir(), "absent.yaml"), Set: map[string]bool{}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if eff.Addr != ":8080" {
		t.Fatalf("default addr %q", eff.Addr)
	}
}

func TestClientDefaults(t *testing.T) {
	var cc ClientConfig
	if cc.MediaPrefixOrDefault() != "uploads/" {
		t.Fatalf("media prefix %q", cc.MediaPrefixOrDefault())
	}
	if cc.MessageInterval() != 8*time.Second {
		t.Fatalf("message interval %v", cc.MessageInterval())
	}
	if cc.NotificationInterval() != 60*time.Second {
		t.Fatalf("notification interval %v", cc.NotificationInterval())
	}

	cc = ClientConfig{MessagePollInterval: "250ms", NotificationPollInterval: "5s", MediaPrefix: "media/"}
	if cc.MessageInterval() != 250*time.Millisecond || cc.NotificationInterval() != 5*time.Second {
		t.Fatalf("configured intervals %v %v", cc.MessageInterval(), cc.NotificationInterval())
	}
	if cc.MediaPrefixOrDefault() != "media/" {
		t.Fatalf("configured prefix %q", cc.MediaPrefixOrDefault())
	}
}
