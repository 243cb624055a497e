package test

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/mjtimeline/core"
)

// fakeLedger is an in-memory ledger node. Receipts stay pending until polled once.
type fakeLedger struct {
	mu         sync.Mutex
	containers map[string]*core.ContainerState
	receipts   map[string]core.Receipt
	nextPostID map[string]uint64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		containers: make(map[string]*core.ContainerState),
		receipts:   make(map[string]core.Receipt),
		nextPostID: make(map[string]uint64),
	}
}

func (l *fakeLedger) routes() *echo.Echo {
	e := echo.New()
	e.POST("/api/v1/commit", l.commit)
	e.GET("/api/v1/receipt/:digest", l.receipt)
	e.GET("/api/v1/timeline/:id", l.timeline)
	e.GET("/api/v1/timelines", l.timelines)
	return e
}

type documentBody struct {
	Content string `json:"content"`
}

type anyDocument struct {
	core.DocumentBase[documentBody]
	Target uint64 `json:"target"`
}

func (l *fakeLedger) commit(c echo.Context) error {
	var commit core.Commit
	if err := c.Bind(&commit); err != nil {
		return c.JSON(http.StatusBadRequest, core.ResponseBase[any]{Status: "error", Error: "invalid commit"})
	}

	var doc anyDocument
	if err := json.Unmarshal([]byte(commit.Document), &doc); err != nil {
		return c.JSON(http.StatusBadRequest, core.ResponseBase[any]{Status: "error", Error: "invalid document"})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	digest := "0x" + hex.EncodeToString(core.GetHash([]byte(commit.Document)))
	created, err := l.apply(doc)

	receipt := core.Receipt{Digest: digest, Status: core.ReceiptStatusSuccess, Created: created}
	if err != nil {
		receipt.Status = core.ReceiptStatusFailure
		receipt.Error = err.Error()
	}
	l.receipts[digest] = receipt

	return c.JSON(http.StatusOK, core.ResponseBase[core.Receipt]{
		Status:  "ok",
		Content: core.Receipt{Digest: digest, Status: core.ReceiptStatusPending},
	})
}

func (l *fakeLedger) apply(doc anyDocument) ([]string, error) {
	if doc.Type == core.DocumentTypeInitialize {
		id := fmt.Sprintf("0x%032x", len(l.containers)+1)
		l.containers[id] = &core.ContainerState{ID: id, Owner: doc.Signer}
		return []string{id}, nil
	}

	state, ok := l.containers[doc.Timeline]
	if !ok {
		return nil, fmt.Errorf("unknown container %s", doc.Timeline)
	}

	find := func(id uint64) (*core.Post, error) {
		for i := range state.Posts {
			if state.Posts[i].ID == id {
				return &state.Posts[i], nil
			}
		}
		return nil, fmt.Errorf("unknown post %d", id)
	}

	switch doc.Type {
	case core.DocumentTypePost:
		l.nextPostID[state.ID]++
		state.Posts = append(state.Posts, core.Post{
			ID:        l.nextPostID[state.ID],
			Author:    doc.Signer,
			Content:   doc.Body.Content,
			Timestamp: time.Now().UnixMilli(),
		})
	case core.DocumentTypeLike:
		post, err := find(doc.Target)
		if err != nil {
			return nil, err
		}
		post.Likes++
		state.Likes = append(state.Likes, core.Like{PostID: post.ID, Liker: doc.Signer})
	case core.DocumentTypeUnlike:
		post, err := find(doc.Target)
		if err != nil {
			return nil, err
		}
		for i, like := range state.Likes {
			if like.PostID == post.ID && strings.EqualFold(like.Liker, doc.Signer) {
				state.Likes = append(state.Likes[:i], state.Likes[i+1:]...)
				post.Likes--
				break
			}
		}
	case core.DocumentTypeDelete:
		post, err := find(doc.Target)
		if err != nil {
			return nil, err
		}
		if post.Author != doc.Signer {
			return nil, fmt.Errorf("post %d is not owned by %s", post.ID, doc.Signer)
		}
		post.IsDeleted = true
	case core.DocumentTypeComment:
		post, err := find(doc.Target)
		if err != nil {
			return nil, err
		}
		post.CommentCount++
		state.Comments = append(state.Comments, core.Comment{
			PostID:    post.ID,
			Author:    doc.Signer,
			Content:   doc.Body.Content,
			Timestamp: time.Now().UnixMilli(),
		})
	default:
		return nil, fmt.Errorf("unknown document type %s", doc.Type)
	}

	return nil, nil
}

func (l *fakeLedger) receipt(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	receipt, ok := l.receipts[c.Param("digest")]
	if !ok {
		return c.JSON(http.StatusNotFound, core.ResponseBase[any]{Status: "error", Error: "receipt not found"})
	}
	return c.JSON(http.StatusOK, core.ResponseBase[core.Receipt]{Status: "ok", Content: receipt})
}

func (l *fakeLedger) timeline(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.containers[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, core.ResponseBase[any]{Status: "error", Error: "container not found"})
	}

	body, _ := json.Marshal(state)
	var copied core.ContainerState
	json.Unmarshal(body, &copied)

	return c.JSON(http.StatusOK, core.ResponseBase[core.ContainerState]{Status: "ok", Content: copied})
}

func (l *fakeLedger) timelines(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner := c.QueryParam("owner")
	result := make([]core.TimelineContainer, 0)
	for _, state := range l.containers {
		if strings.EqualFold(state.Owner, owner) {
			result = append(result, core.TimelineContainer{ID: state.ID, Owner: state.Owner})
		}
	}
	return c.JSON(http.StatusOK, core.ResponseBase[[]core.TimelineContainer]{Status: "ok", Content: result})
}
