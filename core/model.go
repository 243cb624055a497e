package core

import (
	"time"
)

// TimelineContainer is the per-identity root object on the ledger
type TimelineContainer struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

// Post is a single journal entry in a timeline container
type Post struct {
	ID           uint64 `json:"id"`
	Author       string `json:"author"`
	Content      string `json:"content"`
	Timestamp    int64  `json:"timestamp"` // unix millis, assigned by the ledger
	Likes        uint64 `json:"likes"`
	CommentCount uint64 `json:"comment_count"`
	IsDeleted    bool   `json:"is_deleted"`
}

// CreatedAt returns the ledger-assigned creation time
func (p Post) CreatedAt() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Like relates an identity to a post it has liked
type Like struct {
	PostID uint64 `json:"post_id"`
	Liker  string `json:"liker"`
}

// Comment is an append-only reply to a post
type Comment struct {
	PostID    uint64 `json:"post_id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ContainerState is the raw result of querying a timeline container
type ContainerState struct {
	ID       string    `json:"id"`
	Owner    string    `json:"owner"`
	Posts    []Post    `json:"posts"`
	Comments []Comment `json:"comments"`
	Likes    []Like    `json:"likes"`
}

// Receipt is the settlement record returned by the ledger node
type Receipt struct {
	Digest  string   `json:"digest"`
	Status  string   `json:"status"`
	Created []string `json:"created,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Final reports whether the receipt will not change anymore
func (r Receipt) Final() bool {
	return r.Status == ReceiptStatusSuccess || r.Status == ReceiptStatusFailure
}

// Phase is the lifecycle stage of the mutating request slot
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSettled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSettled:
		return "settled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequestState is what the consumer sees of the mutating request slot
type RequestState struct {
	Phase     Phase
	IsPending bool
	Error     error
	Hash      string
}

// IntentKind enumerates the state changing requests
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentInitializeTimeline
	IntentCreatePost
	IntentLikePost
	IntentUnlikePost
	IntentDeletePost
	IntentAddComment
)

func (k IntentKind) String() string {
	switch k {
	case IntentInitializeTimeline:
		return "initialize_timeline"
	case IntentCreatePost:
		return "create_post"
	case IntentLikePost:
		return "like_post"
	case IntentUnlikePost:
		return "unlike_post"
	case IntentDeletePost:
		return "delete_post"
	case IntentAddComment:
		return "add_comment"
	default:
		return "unknown"
	}
}

// Intent is a logical state change addressed to a timeline container
type Intent struct {
	Kind     IntentKind
	Timeline string
	PostID   uint64
	Content  string
}

// Theme is the UI appearance preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme. Unknown values toggle to light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
