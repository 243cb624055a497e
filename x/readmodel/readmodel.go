// Package readmodel derives the immutable post list view from raw container state
package readmodel

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/totegamma/mjtimeline/core"
)

// LikeSet is the set of post ids liked by the current identity
type LikeSet map[uint64]struct{}

func (s LikeSet) Has(id uint64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the liked post ids in ascending order
func (s LikeSet) IDs() []uint64 {
	ids := maps.Keys(s)
	slices.Sort(ids)
	return ids
}

func (s LikeSet) MarshalJSON() ([]byte, error) {
	ids := s.IDs()
	if ids == nil {
		ids = []uint64{}
	}
	return json.Marshal(ids)
}

func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var ids []uint64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := make(LikeSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	*s = set
	return nil
}

// Snapshot is one consistent rendition of a timeline container.
// Snapshots are never modified after Build returns them.
type Snapshot struct {
	TimelineID string
	Posts      []core.Post
	UserLikes  LikeSet
}

// Build converts the raw container state into a snapshot for identity.
// Posts keep ledger creation order, oldest first. Comment totals are taken
// from the post counters; the comment bodies in state are not read.
func Build(state core.ContainerState, identity string) Snapshot {
	posts := make([]core.Post, len(state.Posts))
	copy(posts, state.Posts)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ID < posts[j].ID
	})

	likes := LikeSet{}
	if identity != "" {
		for _, like := range state.Likes {
			if strings.EqualFold(like.Liker, identity) {
				likes[like.PostID] = struct{}{}
			}
		}
	}

	return Snapshot{
		TimelineID: state.ID,
		Posts:      posts,
		UserLikes:  likes,
	}
}

// Active returns posts that are not tombstoned
func (s Snapshot) Active() []core.Post {
	active := make([]core.Post, 0, len(s.Posts))
	for _, post := range s.Posts {
		if !post.IsDeleted {
			active = append(active, post)
		}
	}
	return active
}

func (s Snapshot) ActiveCount() int {
	count := 0
	for _, post := range s.Posts {
		if !post.IsDeleted {
			count++
		}
	}
	return count
}

// Search matches active posts whose content or author contains query, ignoring case
func (s Snapshot) Search(query string) []core.Post {
	needle := strings.ToLower(strings.TrimSpace(query))
	result := make([]core.Post, 0)
	for _, post := range s.Posts {
		if post.IsDeleted {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(post.Content), needle) ||
			strings.Contains(strings.ToLower(post.Author), needle) {
			result = append(result, post)
		}
	}
	return result
}

func (s Snapshot) Find(id uint64) (core.Post, bool) {
	for _, post := range s.Posts {
		if post.ID == id {
			return post, true
		}
	}
	return core.Post{}, false
}

func (s Snapshot) HasLiked(id uint64) bool {
	return s.UserLikes.Has(id)
}
