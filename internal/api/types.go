package api

import "time"

// Item 是通用演示资源，字段与服务端 JSON 形状一一对应。
type Item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemCreate 描述创建 Item 的请求体；IsActive 缺省由服务端补 true。
type ItemCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ItemUpdate 为部分更新，所有字段均可缺省。
type ItemUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CountResult 对应 GET /items/count 的响应。
type CountResult struct {
	Count int64 `json:"count"`
}

// User 是认证/资料接口共享的用户形状。
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Credentials 用于 POST /auth/login。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration 用于 POST /auth/register。
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// AuthResponse 是登录/注册成功后的统一响应。
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// ProfileUpdate 用于 PUT /profile 的部分更新。
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// PostStatus 枚举文章可见性状态。
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
	PostStatusPrivate   PostStatus = "private"
)

// ValidPostStatus 判断状态值是否为受支持的枚举。
func ValidPostStatus(s PostStatus) bool {
	switch s {
	case PostStatusPublished, PostStatusDraft, PostStatusPrivate:
		return true
	default:
		return false
	}
}

// PostAuthor 是文章响应内嵌的作者摘要。
type PostAuthor struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Post 对应博客文章的完整响应形状。
type Post struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Summary     *string    `json:"summary"`
	Tags        []string   `json:"tags"`
	Category    *string    `json:"category"`
	Status      PostStatus `json:"status"`
	ViewCount   int64      `json:"view_count"`
	LikeCount   int64      `json:"like_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
	Author      PostAuthor `json:"author"`
}

// PostCreate 描述创建文章的请求体；Status 缺省为 draft。
type PostCreate struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Summary  *string    `json:"summary,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Category *string    `json:"category,omitempty"`
	Status   PostStatus `json:"status,omitempty"`
}

// PostUpdate 为部分更新，所有字段均可缺省。
type PostUpdate struct {
	Title    *string     `json:"title,omitempty"`
	Content  *string     `json:"content,omitempty"`
	Summary  *string     `json:"summary,omitempty"`
	Tags     []string    `json:"tags,omitempty"`
	Category *string     `json:"category,omitempty"`
	Status   *PostStatus `json:"status,omitempty"`
}
