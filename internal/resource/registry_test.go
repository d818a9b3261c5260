package resource

import "testing"

func TestRegistryResolvesBuiltins(t *testing.T) {
	for _, key := range []string{"items", "itemcount", "posts", "profile", "auth"} {
		meta, ok := Resolve(key)
		if !ok {
			t.Fatalf("内建资源 %q 未注册", key)
		}
		if meta.Key != key {
			t.Fatalf("键未归一化: got %q want %q", meta.Key, key)
		}
	}
}

func TestRegistryResolveNormalizesKey(t *testing.T) {
	meta, ok := Resolve("  Posts ")
	if !ok {
		t.Fatalf("大小写/空白应被归一化后命中")
	}
	if meta.Key != "posts" {
		t.Fatalf("unexpected key: %q", meta.Key)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if err := Register(Metadata{Key: "items", Description: "dup"}); err == nil {
		t.Fatalf("重复注册应返回错误")
	}
	if err := Register(Metadata{Key: "  "}); err == nil {
		t.Fatalf("空键应返回错误")
	}
}

func TestRegistryListSorted(t *testing.T) {
	list := List()
	if len(list) < 5 {
		t.Fatalf("注册表条目不足: %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Key >= list[i].Key {
			t.Fatalf("列表未按键排序: %q >= %q", list[i-1].Key, list[i].Key)
		}
	}
}

func TestProfileDefaultStaleTime(t *testing.T) {
	meta, ok := Resolve("profile")
	if !ok {
		t.Fatalf("profile 未注册")
	}
	if meta.DefaultStaleTime <= 0 {
		t.Fatalf("profile 应带默认新鲜度窗口")
	}
	if !meta.RequiresAuth {
		t.Fatalf("profile 应要求登录")
	}
}
