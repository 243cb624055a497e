package core

import (
	"time"
)

// commons
type DocumentBase[T any] struct {
	ID       string    `json:"id,omitempty"`
	Signer   string    `json:"signer"`
	Type     string    `json:"type"`
	Timeline string    `json:"timeline,omitempty"`
	Body     T         `json:"body,omitempty"`
	SignedAt time.Time `json:"signedAt"`
}

// timeline
type InitializeDocument struct { // type: timeline.initialize
	DocumentBase[any]
}

// post
type PostBody struct {
	Content string `json:"content"`
}

type PostDocument struct { // type: post.create
	DocumentBase[PostBody]
}

type TargetDocument struct { // type: post.like, post.unlike, post.delete
	DocumentBase[any]
	Target uint64 `json:"target"`
}

// comment
type CommentBody struct {
	Content string `json:"content"`
}

type CommentDocument struct { // type: comment.create
	DocumentBase[CommentBody]
	Target uint64 `json:"target"`
}
