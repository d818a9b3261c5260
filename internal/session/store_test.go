package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blogctl/blogctl/internal/api"
)

func tokenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "token")
}

func TestStoreStartsAnonymous(t *testing.T) {
	store, err := NewStore(tokenPath(t), nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	snap := store.Snapshot()
	if snap.State != StateAnonymous {
		t.Fatalf("无持久化令牌时应为匿名态，得到 %s", snap.State)
	}
	if store.Token() != "" {
		t.Fatalf("匿名态不应持有令牌")
	}
}

func TestStoreStartsPendingWithPersistedToken(t *testing.T) {
	path := tokenPath(t)
	if err := writeTokenFile(path, "persisted-token"); err != nil {
		t.Fatalf("预写令牌失败: %v", err)
	}

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	snap := store.Snapshot()
	if snap.State != StatePending {
		t.Fatalf("持令牌但身份未确认时应为 Pending，得到 %s", snap.State)
	}
	if store.Token() != "persisted-token" {
		t.Fatalf("令牌读取错误: %q", store.Token())
	}
}

func TestSetAuthenticatedPersistsToken(t *testing.T) {
	path := tokenPath(t)
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	user := &api.User{ID: 1, Email: "a@b.c", DisplayName: "A"}
	store.SetAuthenticated("tok-1", user)

	if store.Snapshot().State != StateAuthenticated {
		t.Fatalf("登录后应为认证态")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("令牌文件应已写入: %v", err)
	}
	if string(raw) != "tok-1\n" {
		t.Fatalf("令牌内容错误: %q", string(raw))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("令牌文件权限应为 0600，得到 %v", info.Mode().Perm())
	}

	// 重启进程等价于重新 NewStore：令牌应恢复为 Pending
	restarted, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	if restarted.Snapshot().State != StatePending {
		t.Fatalf("重启后应进入 Pending")
	}
}

func TestClearRemovesPersistedToken(t *testing.T) {
	path := tokenPath(t)
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	store.SetAuthenticated("tok-1", &api.User{ID: 1})

	store.Clear()

	snap := store.Snapshot()
	if snap.State != StateAnonymous || snap.Token != "" {
		t.Fatalf("登出后应回到匿名态: %+v", snap)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("令牌文件应已删除")
	}
}

func TestSubscribeNotifiesOnTransitions(t *testing.T) {
	store, err := NewStore(tokenPath(t), nil)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}

	var states []State
	cancel := store.Subscribe(func(snap Snapshot) {
		states = append(states, snap.State)
	})

	store.SetAuthenticated("tok", &api.User{ID: 1})
	store.Clear()
	cancel()
	store.SetAuthenticated("tok2", &api.User{ID: 2})

	if len(states) != 2 {
		t.Fatalf("注销后的变更不应再通知，收到 %d 次", len(states))
	}
	if states[0] != StateAuthenticated || states[1] != StateAnonymous {
		t.Fatalf("状态序列错误: %v", states)
	}
}
