package devserver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogctl/blogctl/internal/api"
)

var (
	errNotFound  = errors.New("not found")
	errConflict  = errors.New("already exists")
	errForbidden = errors.New("forbidden")
)

// storedUser 在用户形状之外额外保存口令哈希。
type storedUser struct {
	api.User
	passwordHash string
}

// storedPost 在文章形状之外记录作者归属。
type storedPost struct {
	api.Post
	authorID int64
}

// memoryStore 是全内存的数据层。所有访问经同一把锁,适合单进程开发服务。
type memoryStore struct {
	mu sync.Mutex

	users  map[int64]*storedUser
	emails map[string]int64
	tokens map[string]int64

	items map[int64]*api.Item
	posts map[int64]*storedPost

	nextUser int64
	nextItem int64
	nextPost int64

	now func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[int64]*storedUser),
		emails: make(map[string]int64),
		tokens: make(map[string]int64),
		items:  make(map[int64]*api.Item),
		posts:  make(map[int64]*storedPost),
		now:    time.Now,
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *memoryStore) createUser(email, password, displayName string) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.emails[normalized]; exists {
		return nil, errConflict
	}

	s.nextUser++
	now := s.now().UTC()
	user := &storedUser{
		User: api.User{
			ID:          s.nextUser,
			Email:       normalized,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		passwordHash: hashPassword(password),
	}
	s.users[user.ID] = user
	s.emails[normalized] = user.ID

	out := user.User
	return &out, nil
}

// authenticate 校验凭证并签发新令牌。旧令牌保持有效,与无状态 JWT 的
// 多端登录行为一致。
func (s *memoryStore) authenticate(email, password string) (string, *api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", nil, errNotFound
	}
	user := s.users[id]
	if user.passwordHash != hashPassword(password) {
		return "", nil, errNotFound
	}

	token := uuid.NewString()
	s.tokens[token] = user.ID
	out := user.User
	return token, &out, nil
}

func (s *memoryStore) issueToken(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *memoryStore) userByToken(token string) (*api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	user, ok := s.users[id]
	if !ok {
		return nil, false
	}
	out := user.User
	return &out, true
}

func (s *memoryStore) updateUser(id int64, patch api.ProfileUpdate) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		user.Bio = patch.Bio
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}
	user.UpdatedAt = s.now().UTC()

	out := user.User
	return &out, nil
}

func (s *memoryStore) listItems(skip, limit int, activeOnly *bool) []api.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Item, 0, len(s.items))
	for _, item := range s.items {
		if activeOnly != nil && *activeOnly && !item.IsActive {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginateItems(out, skip, limit)
}

func (s *memoryStore) countItems(activeOnly *bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, item := range s.items {
		if activeOnly != nil && *activeOnly && !item.IsActive {
			continue
		}
		count++
	}
	return count
}

func (s *memoryStore) getItem(id int64) (*api.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, errNotFound
	}
	out := *item
	return &out, nil
}

func (s *memoryStore) createItem(payload api.ItemCreate) *api.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItem++
	now := s.now().UTC()
	item := &api.Item{
		ID:          s.nextItem,
		Title:       payload.Title,
		Description: payload.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if payload.IsActive != nil {
		item.IsActive = *payload.IsActive
	}
	s.items[item.ID] = item
	out := *item
	return &out
}

func (s *memoryStore) updateItem(id int64, patch api.ItemUpdate) (*api.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, errNotFound
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = patch.Description
	}
	if patch.IsActive != nil {
		item.IsActive = *patch.IsActive
	}
	item.UpdatedAt = s.now().UTC()
	out := *item
	return &out, nil
}

func (s *memoryStore) deleteItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return errNotFound
	}
	delete(s.items, id)
	return nil
}

type postFilter struct {
	skip   int
	limit  int
	status api.PostStatus
	search string
	tag    string
	mine   bool
	viewer int64 // 0 表示匿名
}

// listPosts 应用可见性规则:mine 只看自己的全部文章;
// 否则仅返回已发布文章。
func (s *memoryStore) listPosts(f postFilter) []api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.search))
	out := make([]api.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if f.mine {
			if post.authorID != f.viewer {
				continue
			}
		} else if post.Status != api.PostStatusPublished {
			continue
		}
		if f.status != "" && post.Status != f.status {
			continue
		}
		if f.tag != "" && !hasTag(post.Tags, f.tag) {
			continue
		}
		if search != "" && !matchesSearch(&post.Post, search) {
			continue
		}
		out = append(out, post.Post)
	}
	// 新文章在前。
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginatePosts(out, f.skip, f.limit)
}

// getPost 返回对 viewer 可见的文章并累加阅读数;不可见等同于不存在。
func (s *memoryStore) getPost(id, viewer int64) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, errNotFound
	}
	if post.Status != api.PostStatusPublished && post.authorID != viewer {
		return nil, errNotFound
	}
	post.ViewCount++
	out := post.Post
	return &out, nil
}

func (s *memoryStore) createPost(author api.User, payload api.PostCreate) *api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPost++
	now := s.now().UTC()
	status := payload.Status
	if status == "" {
		status = api.PostStatusDraft
	}
	post := &storedPost{
		Post: api.Post{
			ID:        s.nextPost,
			Title:     payload.Title,
			Content:   payload.Content,
			Summary:   payload.Summary,
			Tags:      append([]string(nil), payload.Tags...),
			Category:  payload.Category,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
			Author: api.PostAuthor{
				ID:          author.ID,
				DisplayName: author.DisplayName,
				AvatarURL:   author.AvatarURL,
			},
		},
		authorID: author.ID,
	}
	if status == api.PostStatusPublished {
		published := now
		post.PublishedAt = &published
	}
	s.posts[post.ID] = post
	out := post.Post
	return &out
}

func (s *memoryStore) updatePost(id, editor int64, patch api.PostUpdate) (*api.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, errNotFound
	}
	if post.authorID != editor {
		return nil, errForbidden
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Summary != nil {
		post.Summary = patch.Summary
	}
	if patch.Tags != nil {
		post.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.Category != nil {
		post.Category = patch.Category
	}
	if patch.Status != nil && *patch.Status != post.Status {
		post.Status = *patch.Status
		if post.Status == api.PostStatusPublished && post.PublishedAt == nil {
			published := s.now().UTC()
			post.PublishedAt = &published
		}
	}
	post.UpdatedAt = s.now().UTC()
	out := post.Post
	return &out, nil
}

func (s *memoryStore) deletePost(id, editor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return errNotFound
	}
	if post.authorID != editor {
		return errForbidden
	}
	delete(s.posts, id)
	return nil
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

func matchesSearch(post *api.Post, search string) bool {
	if strings.Contains(strings.ToLower(post.Title), search) {
		return true
	}
	return strings.Contains(strings.ToLower(post.Content), search)
}

func paginateItems(items []api.Item, skip, limit int) []api.Item {
	if skip >= len(items) {
		return []api.Item{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func paginatePosts(posts []api.Post, skip, limit int) []api.Post {
	if skip >= len(posts) {
		return []api.Post{}
	}
	posts = posts[skip:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}
