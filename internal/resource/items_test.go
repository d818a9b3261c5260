package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blogctl/blogctl/internal/api"
	"github.com/blogctl/blogctl/internal/config"
	"github.com/blogctl/blogctl/internal/query"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("等待超时: %s", what)
}

func waitSettled(t *testing.T, sub *query.Subscription) query.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := sub.Wait(ctx)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	return snap
}

// staticToken 是测试用的固定令牌源。
type staticToken string

func (s staticToken) Token() string { return string(s) }

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config error: %v", err)
	}
	cfg.Global.BaseURL = baseURL
	client, err := api.NewClient(cfg, staticToken(""), nil)
	if err != nil {
		t.Fatalf("client error: %v", err)
	}
	return client
}

// itemStub 模拟条目后端：返回固定数据并统计各接口的命中次数。
type itemStub struct {
	server     *httptest.Server
	listCalls  atomic.Int32
	countCalls atomic.Int32
	getCalls   atomic.Int32
	failWrites atomic.Bool
}

func newItemStub(t *testing.T) *itemStub {
	t.Helper()

	stub := &itemStub{}
	item := api.Item{ID: 7, Title: "first", IsActive: true}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/count", func(w http.ResponseWriter, r *http.Request) {
		stub.countCalls.Add(1)
		json.NewEncoder(w).Encode(api.CountResult{Count: 1})
	})
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.getCalls.Add(1)
		json.NewEncoder(w).Encode(item)
	})
	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		stub.listCalls.Add(1)
		json.NewEncoder(w).Encode([]api.Item{item})
	})
	mux.HandleFunc("POST /items", func(w http.ResponseWriter, r *http.Request) {
		if stub.failWrites.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "boom"}`))
			return
		}
		var payload api.ItemCreate
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.Item{ID: 8, Title: payload.Title, IsActive: true})
	})
	mux.HandleFunc("PUT /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.Item{ID: 7, Title: "renamed", IsActive: true})
	})
	mux.HandleFunc("DELETE /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func newItemsBinding(t *testing.T, stub *itemStub) (*Items, *query.Cache) {
	t.Helper()
	cache := query.New(nil)
	client := newClient(t, stub.server.URL)
	return NewItems(cache, client, nil, time.Minute), cache
}

func TestItemListSharedAcrossSubscribers(t *testing.T) {
	stub := newItemStub(t)
	items, _ := newItemsBinding(t, stub)

	first := items.List(ItemListParams{Limit: 10})
	defer first.Close()
	waitSettled(t, first)

	second := items.List(ItemListParams{Limit: 10})
	defer second.Close()
	snap := waitSettled(t, second)

	if got := stub.listCalls.Load(); got != 1 {
		t.Fatalf("相同参数应共享请求, got %d calls", got)
	}
	list, ok := snap.Data.([]api.Item)
	if !ok || len(list) != 1 || list[0].ID != 7 {
		t.Fatalf("unexpected list data: %#v", snap.Data)
	}
}

func TestItemListDistinctParamsFetchSeparately(t *testing.T) {
	stub := newItemStub(t)
	items, _ := newItemsBinding(t, stub)

	first := items.List(ItemListParams{Limit: 10})
	defer first.Close()
	waitSettled(t, first)

	second := items.List(ItemListParams{Limit: 20})
	defer second.Close()
	waitSettled(t, second)

	if got := stub.listCalls.Load(); got != 2 {
		t.Fatalf("不同参数应各自请求, got %d calls", got)
	}
}

func TestItemGetRejectsInvalidID(t *testing.T) {
	stub := newItemStub(t)
	items, _ := newItemsBinding(t, stub)

	if sub, ok := items.Get(0); ok || sub != nil {
		t.Fatalf("id=0 应直接拒绝订阅")
	}
	if sub, ok := items.Get(-3); ok || sub != nil {
		t.Fatalf("负数 id 应直接拒绝订阅")
	}
	if got := stub.getCalls.Load(); got != 0 {
		t.Fatalf("非法 id 不应产生网络请求, got %d", got)
	}
}

func TestItemCreateInvalidatesListsAndCount(t *testing.T) {
	stub := newItemStub(t)
	items, cache := newItemsBinding(t, stub)

	list := items.List(ItemListParams{})
	defer list.Close()
	waitSettled(t, list)
	count := items.Count(nil)
	defer count.Close()
	waitSettled(t, count)

	created, err := items.Create(context.Background(), api.ItemCreate{Title: "second"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if created.ID != 8 {
		t.Fatalf("unexpected created item: %#v", created)
	}

	waitUntil(t, "列表重新拉取", func() bool { return stub.listCalls.Load() == 2 })
	waitUntil(t, "计数重新拉取", func() bool { return stub.countCalls.Load() == 2 })

	// 创建响应直接种子详情缓存，后续读详情不需要再发请求。
	snap := cache.Snapshot(query.DetailKey("item", 8))
	if snap.Status != query.StatusSuccess {
		t.Fatalf("详情缓存未被种子: %v", snap.Status)
	}
	if got := stub.getCalls.Load(); got != 0 {
		t.Fatalf("种子详情不应触发请求, got %d", got)
	}
}

func TestItemCreateLocalValidationSkipsNetwork(t *testing.T) {
	stub := newItemStub(t)
	items, _ := newItemsBinding(t, stub)

	_, err := items.Create(context.Background(), api.ItemCreate{Title: "   "})
	if !api.IsValidation(err) {
		t.Fatalf("空标题应返回校验错误, got %v", err)
	}
	if got := stub.listCalls.Load() + stub.countCalls.Load(); got != 0 {
		t.Fatalf("本地校验失败不应访问网络")
	}
}

func TestItemMutationFailureLeavesCacheUntouched(t *testing.T) {
	stub := newItemStub(t)
	items, _ := newItemsBinding(t, stub)

	list := items.List(ItemListParams{})
	defer list.Close()
	before := waitSettled(t, list)

	stub.failWrites.Store(true)
	_, err := items.Create(context.Background(), api.ItemCreate{Title: "second"})
	if err == nil {
		t.Fatalf("服务端 500 应返回错误")
	}
	if api.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", api.StatusOf(err))
	}

	// 失败的变更不触发任何失效。
	time.Sleep(20 * time.Millisecond)
	if got := stub.listCalls.Load(); got != 1 {
		t.Fatalf("失败变更后列表不应重新拉取, got %d", got)
	}
	after := list.Snapshot()
	if after.Status != query.StatusSuccess || after.FetchedAt != before.FetchedAt {
		t.Fatalf("缓存状态被意外改动: %#v", after)
	}
}

func TestItemUpdateSeedsDetailAndInvalidatesLists(t *testing.T) {
	stub := newItemStub(t)
	items, cache := newItemsBinding(t, stub)

	list := items.List(ItemListParams{})
	defer list.Close()
	waitSettled(t, list)

	updated, err := items.Update(context.Background(), 7, api.ItemUpdate{})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("unexpected updated item: %#v", updated)
	}

	waitUntil(t, "列表重新拉取", func() bool { return stub.listCalls.Load() == 2 })

	snap := cache.Snapshot(query.DetailKey("item", 7))
	if snap.Status != query.StatusSuccess {
		t.Fatalf("详情缓存未被刷新: %v", snap.Status)
	}
	detail, ok := snap.Data.(*api.Item)
	if !ok || detail.Title != "renamed" {
		t.Fatalf("详情数据未更新: %#v", snap.Data)
	}
}

func TestItemDeleteRemovesDetail(t *testing.T) {
	stub := newItemStub(t)
	items, cache := newItemsBinding(t, stub)

	detail, ok := items.Get(7)
	if !ok {
		t.Fatalf("Get(7) 应被接受")
	}
	waitSettled(t, detail)

	if err := items.Delete(context.Background(), 7); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	waitUntil(t, "详情被移除", func() bool {
		return cache.Snapshot(query.DetailKey("item", 7)).Status == query.StatusIdle
	})
	detail.Close()
}
