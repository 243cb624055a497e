package timeline

import (
	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/x/readmodel"
)

// View is what the engine exposes to its consumers
type View struct {
	TimelineID      string            `json:"timelineId"`
	Posts           []core.Post       `json:"posts"`
	ActiveCount     int               `json:"activeCount"`
	IsFetchingPosts bool              `json:"isFetchingPosts"`
	FetchError      string            `json:"fetchError,omitempty"`
	State           RequestView       `json:"state"`
	CurrentAccount  string            `json:"currentAccount"`
	IsConnected     bool              `json:"isConnected"`
	UserLikes       readmodel.LikeSet `json:"userLikes"`
}

type RequestView struct {
	IsPending bool   `json:"isPending"`
	Phase     string `json:"phase"`
	Error     string `json:"error,omitempty"`
	Hash      string `json:"hash,omitempty"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Length  int    `json:"length"`
}
