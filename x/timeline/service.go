//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=mock/service.go
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/x/content"
	"github.com/totegamma/mjtimeline/x/readmodel"
	"github.com/totegamma/mjtimeline/x/tracker"
)

var tracer = otel.Tracer("timeline")

// Service is the synchronization engine of one timeline
type Service interface {
	Mount(ctx context.Context) error
	Disconnect(ctx context.Context) error
	CreateTimeline(ctx context.Context) error
	FetchPosts(ctx context.Context) error
	CreatePost(ctx context.Context, body string) error
	LikePost(ctx context.Context, id uint64) error
	UnlikePost(ctx context.Context, id uint64) error
	DeletePost(ctx context.Context, id uint64) error
	AddComment(ctx context.Context, id uint64, body string) error
	Search(query string) []core.Post
	View() View
	Watch() (<-chan View, func())
}

type service struct {
	gateway  core.GatewayService
	identity core.IdentityService
	wallet   core.Wallet
	tracker  *tracker.Tracker
	config   core.Config

	mu         sync.RWMutex
	account    string
	timelineID string
	fetchError error
	appliedSeq uint64
	session    uint64

	snapshot atomic.Pointer[readmodel.Snapshot]
	fetching atomic.Int32
	fetchSeq atomic.Uint64

	watchMu  sync.Mutex
	watchers map[chan View]struct{}
}

// NewService creates a new synchronization engine
func NewService(
	gateway core.GatewayService,
	identity core.IdentityService,
	wallet core.Wallet,
	tracker *tracker.Tracker,
	config core.Config,
) Service {
	return &service{
		gateway:  gateway,
		identity: identity,
		wallet:   wallet,
		tracker:  tracker,
		config:   config,
		watchers: make(map[chan View]struct{}),
	}
}

// Mount resolves the container of the connected account and fetches it.
// An account without a container is left with an empty timeline id.
func (s *service) Mount(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.Mount")
	defer span.End()

	account := s.wallet.CurrentAccount()
	if !s.wallet.IsConnected() || account == "" {
		return core.NewErrorNotConnected()
	}

	s.mu.Lock()
	if s.account != account {
		s.account = account
		s.session++
		s.timelineID = ""
		s.fetchError = nil
		s.appliedSeq = s.fetchSeq.Load()
		s.snapshot.Store(nil)
	}
	s.mu.Unlock()
	s.notify()

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	timelineID, err := s.identity.Resolve(rctx, account)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			slog.InfoContext(
				ctx,
				fmt.Sprintf("no timeline container for %s", account),
				slog.String("module", "timeline"),
			)
			return nil
		}
		err = s.mapError(rctx, err)
		span.RecordError(err)
		s.mu.Lock()
		if s.account == account {
			s.fetchError = err
		}
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	if s.account != account {
		s.mu.Unlock()
		return nil
	}
	s.timelineID = timelineID
	s.mu.Unlock()

	return s.FetchPosts(ctx)
}

// Disconnect reacts to the loss of the wallet connection
func (s *service) Disconnect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.Disconnect")
	defer span.End()

	if s.tracker.Abort(core.NewErrorNotConnected()) {
		slog.InfoContext(ctx, "pending request aborted by disconnect", slog.String("module", "timeline"))
	}

	s.mu.Lock()
	account := s.account
	s.account = ""
	s.session++
	s.timelineID = ""
	s.fetchError = nil
	s.appliedSeq = s.fetchSeq.Load()
	s.snapshot.Store(nil)
	s.mu.Unlock()

	s.notify()

	if account != "" {
		if err := s.identity.Forget(ctx, account); err != nil {
			slog.WarnContext(
				ctx,
				fmt.Sprintf("failed to forget container of %s: %v", account, err),
				slog.String("module", "timeline"),
			)
		}
	}

	return nil
}

// FetchPosts replaces the snapshot with the current ledger state.
// It never takes the mutation slot.
func (s *service) FetchPosts(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.FetchPosts")
	defer span.End()

	s.mu.RLock()
	timelineID := s.timelineID
	account := s.account
	s.mu.RUnlock()

	if timelineID == "" {
		return core.NewErrorNoTimeline()
	}

	seq := s.fetchSeq.Add(1)
	span.SetAttributes(attribute.Int64("seq", int64(seq)))

	s.fetching.Add(1)
	s.notify()
	defer func() {
		s.fetching.Add(-1)
		s.notify()
	}()

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	state, err := s.gateway.GetContainer(rctx, timelineID)
	if err != nil {
		err = s.mapError(rctx, err)
		span.RecordError(err)
		s.mu.Lock()
		if seq > s.appliedSeq && s.timelineID == timelineID {
			s.fetchError = err
		}
		s.mu.Unlock()
		return err
	}

	snapshot := readmodel.Build(state, account)
	if snapshot.TimelineID == "" {
		snapshot.TimelineID = timelineID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq || s.timelineID != timelineID {
		slog.DebugContext(
			ctx,
			fmt.Sprintf("discarding stale fetch %d of %s", seq, timelineID),
			slog.String("module", "timeline"),
		)
		return nil
	}

	s.appliedSeq = seq
	s.fetchError = nil
	s.snapshot.Store(&snapshot)

	return nil
}

// CreateTimeline initializes the container of the connected account
func (s *service) CreateTimeline(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.CreateTimeline")
	defer span.End()

	return s.mutate(ctx, core.IntentInitializeTimeline, func(account, timelineID string, _ *readmodel.Snapshot) (core.Intent, error) {
		if timelineID != "" {
			return core.Intent{}, core.NewErrorInvalidStateTransition("timeline already exists")
		}
		return core.Intent{Kind: core.IntentInitializeTimeline}, nil
	})
}

func (s *service) CreatePost(ctx context.Context, body string) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.CreatePost")
	defer span.End()

	return s.mutate(ctx, core.IntentCreatePost, func(account, timelineID string, _ *readmodel.Snapshot) (core.Intent, error) {
		if timelineID == "" {
			return core.Intent{}, core.NewErrorNoTimeline()
		}
		if err := content.Validate(body); err != nil {
			return core.Intent{}, err
		}
		return core.Intent{
			Kind:     core.IntentCreatePost,
			Timeline: timelineID,
			Content:  content.Normalize(body),
		}, nil
	})
}

func (s *service) LikePost(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.LikePost")
	defer span.End()

	return s.mutate(ctx, core.IntentLikePost, func(account, timelineID string, snapshot *readmodel.Snapshot) (core.Intent, error) {
		if timelineID == "" {
			return core.Intent{}, core.NewErrorNoTimeline()
		}
		if _, err := activePost(snapshot, id); err != nil {
			return core.Intent{}, err
		}
		if snapshot.HasLiked(id) {
			return core.Intent{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is already liked", id))
		}
		return core.Intent{Kind: core.IntentLikePost, Timeline: timelineID, PostID: id}, nil
	})
}

func (s *service) UnlikePost(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.UnlikePost")
	defer span.End()

	return s.mutate(ctx, core.IntentUnlikePost, func(account, timelineID string, snapshot *readmodel.Snapshot) (core.Intent, error) {
		if timelineID == "" {
			return core.Intent{}, core.NewErrorNoTimeline()
		}
		if snapshot == nil || !snapshot.HasLiked(id) {
			return core.Intent{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is not liked", id))
		}
		return core.Intent{Kind: core.IntentUnlikePost, Timeline: timelineID, PostID: id}, nil
	})
}

// DeletePost tombstones a post authored by the connected account
func (s *service) DeletePost(ctx context.Context, id uint64) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.DeletePost")
	defer span.End()

	return s.mutate(ctx, core.IntentDeletePost, func(account, timelineID string, snapshot *readmodel.Snapshot) (core.Intent, error) {
		if timelineID == "" {
			return core.Intent{}, core.NewErrorNoTimeline()
		}
		post, err := activePost(snapshot, id)
		if err != nil {
			return core.Intent{}, err
		}
		if !strings.EqualFold(post.Author, account) {
			return core.Intent{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is not authored by %s", id, account))
		}
		return core.Intent{Kind: core.IntentDeletePost, Timeline: timelineID, PostID: id}, nil
	})
}

func (s *service) AddComment(ctx context.Context, id uint64, body string) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.AddComment")
	defer span.End()

	return s.mutate(ctx, core.IntentAddComment, func(account, timelineID string, snapshot *readmodel.Snapshot) (core.Intent, error) {
		if timelineID == "" {
			return core.Intent{}, core.NewErrorNoTimeline()
		}
		if err := content.Validate(body); err != nil {
			return core.Intent{}, err
		}
		if _, err := activePost(snapshot, id); err != nil {
			return core.Intent{}, err
		}
		return core.Intent{
			Kind:     core.IntentAddComment,
			Timeline: timelineID,
			PostID:   id,
			Content:  content.Normalize(body),
		}, nil
	})
}

// Search filters the active posts of the current snapshot
func (s *service) Search(query string) []core.Post {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		return []core.Post{}
	}
	return snapshot.Search(query)
}

func (s *service) View() View {
	s.mu.RLock()
	timelineID := s.timelineID
	fetchError := s.fetchError
	s.mu.RUnlock()

	view := View{
		TimelineID:      timelineID,
		Posts:           []core.Post{},
		IsFetchingPosts: s.fetching.Load() > 0,
		CurrentAccount:  s.wallet.CurrentAccount(),
		IsConnected:     s.wallet.IsConnected(),
		UserLikes:       readmodel.LikeSet{},
	}

	if fetchError != nil {
		view.FetchError = fetchError.Error()
	}

	if snapshot := s.snapshot.Load(); snapshot != nil {
		view.Posts = snapshot.Posts
		view.ActiveCount = snapshot.ActiveCount()
		view.UserLikes = snapshot.UserLikes
	}

	state := s.tracker.State()
	view.State = RequestView{
		IsPending: state.IsPending,
		Phase:     state.Phase.String(),
		Hash:      state.Hash,
	}
	if state.Error != nil {
		view.State.Error = state.Error.Error()
	}

	return view
}

// Watch subscribes to view changes. Slow readers only see the latest view.
func (s *service) Watch() (<-chan View, func()) {
	ch := make(chan View, 1)

	s.watchMu.Lock()
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, ch)
			close(ch)
			s.watchMu.Unlock()
		})
	}
}

func (s *service) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if len(s.watchers) == 0 {
		return
	}

	view := s.View()
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
}

type prepareFunc func(account, timelineID string, snapshot *readmodel.Snapshot) (core.Intent, error)

// mutate runs one mutating request through the tracker and the gateway.
// Precondition failures are recorded like gateway failures but never reach the ledger.
func (s *service) mutate(ctx context.Context, kind core.IntentKind, prepare prepareFunc) error {
	ctx, span := tracer.Start(ctx, "Timeline.Service.Mutate")
	defer span.End()

	span.SetAttributes(attribute.String("intent", kind.String()))

	flight, err := s.tracker.Begin(kind.String())
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.notify()

	account := s.wallet.CurrentAccount()
	if !s.wallet.IsConnected() || account == "" {
		return s.fail(flight, core.NewErrorNotConnected())
	}

	s.mu.RLock()
	timelineID := s.timelineID
	session := s.session
	s.mu.RUnlock()

	intent, err := prepare(account, timelineID, s.snapshot.Load())
	if err != nil {
		span.RecordError(err)
		return s.fail(flight, err)
	}

	// the request outlives the caller; only the timeout and Disconnect end it
	detached := context.WithoutCancel(ctx)
	rctx, cancel := s.withTimeout(detached)
	defer cancel()
	flight.Bind(cancel)

	started := time.Now()
	receipt, err := s.gateway.Execute(rctx, intent)
	if err != nil {
		err = s.mapError(rctx, err)
		span.RecordError(err)
		return s.fail(flight, err)
	}

	if !flight.Settle(receipt.Digest) {
		return flight.Err()
	}
	s.notify()

	slog.InfoContext(
		ctx,
		fmt.Sprintf("%s settled in %s", kind, time.Since(started)),
		slog.String("digest", receipt.Digest),
		slog.String("module", "timeline"),
	)

	var created string
	if kind == core.IntentInitializeTimeline {
		if len(receipt.Created) == 0 {
			err := core.NewErrorGateway(errors.New("initialize receipt carries no container id"))
			span.RecordError(err)
			return err
		}
		created = receipt.Created[0]
	}

	// a disconnect or account switch since Begin ends the session this request belonged to
	s.mu.Lock()
	current := s.session == session
	if current && kind == core.IntentInitializeTimeline {
		s.account = account
		s.timelineID = created
	}
	s.mu.Unlock()

	if !current {
		slog.InfoContext(
			ctx,
			fmt.Sprintf("session of %s ended before %s settled, skipping reconciliation", account, kind),
			slog.String("module", "timeline"),
		)
		return nil
	}

	if kind == core.IntentInitializeTimeline {
		if err := s.identity.Remember(detached, account, created); err != nil {
			slog.WarnContext(
				ctx,
				fmt.Sprintf("failed to remember container %s: %v", created, err),
				slog.String("module", "timeline"),
			)
		}
	}

	if err := s.FetchPosts(detached); err != nil {
		slog.ErrorContext(
			ctx,
			fmt.Sprintf("reconciliation fetch after %s failed: %v", kind, err),
			slog.String("module", "timeline"),
		)
	}

	return nil
}

func (s *service) fail(flight *tracker.Flight, err error) error {
	if !flight.Fail(err) {
		if aborted := flight.Err(); aborted != nil {
			return aborted
		}
	}
	s.notify()
	return err
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}

// mapError reports a timeout only when the engine's own request deadline expired
func (s *service) mapError(rctx context.Context, err error) error {
	if errors.Is(rctx.Err(), context.DeadlineExceeded) {
		return core.NewErrorTimeout()
	}
	return err
}

func activePost(snapshot *readmodel.Snapshot, id uint64) (core.Post, error) {
	if snapshot == nil {
		return core.Post{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is unknown", id))
	}
	post, ok := snapshot.Find(id)
	if !ok {
		return core.Post{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is unknown", id))
	}
	if post.IsDeleted {
		return core.Post{}, core.NewErrorInvalidStateTransition(fmt.Sprintf("post %d is deleted", id))
	}
	return post, nil
}
