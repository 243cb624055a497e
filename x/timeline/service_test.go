package timeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/core/mock"
	"github.com/totegamma/mjtimeline/x/readmodel"
	"github.com/totegamma/mjtimeline/x/tracker"
)

const (
	Owner    = "iota1qyx3cgcwkfvcl2qhnxn3c3l0cfsqngpfm5n8wf"
	Other    = "iota1x7ahq8n5l3vljd6ktk0yw0c9h8ud2qnk3xuxnz"
	Timeline = "0x8f1d2c3b4a5968778695a4b3c2d1e0f0"
)

type fixture struct {
	service  *service
	gateway  *mock_core.MockGatewayService
	identity *mock_core.MockIdentityService
}

func newFixture(ctrl *gomock.Controller, config core.Config) fixture {
	wallet := mock_core.NewMockWallet(ctrl)
	wallet.EXPECT().IsConnected().Return(true).AnyTimes()
	wallet.EXPECT().CurrentAccount().Return(Owner).AnyTimes()

	gateway := mock_core.NewMockGatewayService(ctrl)
	identity := mock_core.NewMockIdentityService(ctrl)

	s := NewService(gateway, identity, wallet, tracker.New(), config).(*service)
	return fixture{service: s, gateway: gateway, identity: identity}
}

// mount puts the engine in the state a successful Mount would leave
func (f fixture) mount(state core.ContainerState) {
	snapshot := readmodel.Build(state, Owner)
	f.service.account = Owner
	f.service.timelineID = Timeline
	f.service.snapshot.Store(&snapshot)
}

func baseState() core.ContainerState {
	return core.ContainerState{
		ID:    Timeline,
		Owner: Owner,
		Posts: []core.Post{
			{ID: 1, Author: Owner, Content: "first post", Timestamp: 1700000000000, Likes: 1},
			{ID: 2, Author: Other, Content: "second post", Timestamp: 1700000001000},
			{ID: 3, Author: Owner, Content: "gone", Timestamp: 1700000002000, IsDeleted: true},
		},
		Likes: []core.Like{{PostID: 1, Liker: Owner}},
	}
}

func withPost(state core.ContainerState, post core.Post) core.ContainerState {
	posts := make([]core.Post, len(state.Posts), len(state.Posts)+1)
	copy(posts, state.Posts)
	state.Posts = append(posts, post)
	return state
}

func TestMount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Second})
	f.identity.EXPECT().Resolve(gomock.Any(), Owner).Return(Timeline, nil)
	f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(baseState(), nil).Times(1)

	err := f.service.Mount(context.Background())
	assert.NoError(t, err)

	view := f.service.View()
	assert.Equal(t, Timeline, view.TimelineID)
	assert.Len(t, view.Posts, 3)
	assert.Equal(t, 2, view.ActiveCount)
	assert.False(t, view.IsFetchingPosts)
	assert.True(t, view.UserLikes.Has(1))
	assert.Equal(t, Owner, view.CurrentAccount)
	assert.Equal(t, "idle", view.State.Phase)
}

func TestMountWithoutContainer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.identity.EXPECT().Resolve(gomock.Any(), Owner).Return("", core.NewErrorNotFound())

	err := f.service.Mount(context.Background())
	assert.NoError(t, err)

	view := f.service.View()
	assert.Empty(t, view.TimelineID)
	assert.Empty(t, view.Posts)
	assert.NotNil(t, view.Posts)
}

func TestMountNotConnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wallet := mock_core.NewMockWallet(ctrl)
	wallet.EXPECT().IsConnected().Return(false).AnyTimes()
	wallet.EXPECT().CurrentAccount().Return("").AnyTimes()

	s := NewService(mock_core.NewMockGatewayService(ctrl), mock_core.NewMockIdentityService(ctrl), wallet, tracker.New(), core.Config{})
	err := s.Mount(context.Background())
	assert.ErrorIs(t, err, core.NewErrorNotConnected())
}

func TestCreatePostReconciles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Second})
	f.mount(baseState())

	settled := withPost(baseState(), core.Post{ID: 4, Author: Owner, Content: "hello world", Timestamp: 1700000003000})

	gomock.InOrder(
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentCreatePost, Timeline: Timeline, Content: "hello world"}).
			Return(core.Receipt{Digest: "0xd1", Status: core.ReceiptStatusSuccess}, nil),
		f.gateway.EXPECT().
			GetContainer(gomock.Any(), Timeline).
			Return(settled, nil).
			Times(1),
	)

	err := f.service.CreatePost(context.Background(), "  hello world  ")
	assert.NoError(t, err)

	view := f.service.View()
	assert.Equal(t, "settled", view.State.Phase)
	assert.False(t, view.State.IsPending)
	assert.Equal(t, "0xd1", view.State.Hash)
	assert.Empty(t, view.State.Error)

	active := f.service.snapshot.Load().Active()
	last := active[len(active)-1]
	assert.Equal(t, "hello world", last.Content)
	assert.False(t, last.IsDeleted)
	assert.Equal(t, 3, view.ActiveCount)
}

func TestSingleFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Second})
	f.mount(baseState())

	release := make(chan struct{})
	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, intent core.Intent) (core.Receipt, error) {
			<-release
			return core.Receipt{Digest: "0xd2", Status: core.ReceiptStatusSuccess}, nil
		}).
		Times(1)
	f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(baseState(), nil).Times(1)

	done := make(chan error)
	go func() {
		done <- f.service.CreatePost(context.Background(), "first in line")
	}()

	assert.Eventually(t, func() bool {
		return f.service.View().State.IsPending
	}, time.Second, 5*time.Millisecond)

	err := f.service.LikePost(context.Background(), 2)
	assert.ErrorIs(t, err, core.NewErrorRequestPending())

	err = f.service.CreatePost(context.Background(), "second in line")
	assert.ErrorIs(t, err, core.NewErrorRequestPending())

	// the rejection leaves the pending request untouched
	view := f.service.View()
	assert.True(t, view.State.IsPending)
	assert.Empty(t, view.State.Error)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, "0xd2", f.service.View().State.Hash)
}

func TestLikeGuards(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())

	err := f.service.LikePost(context.Background(), 1)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})
	assert.Equal(t, "failed", f.service.View().State.Phase)
	assert.NotEmpty(t, f.service.View().State.Error)

	err = f.service.UnlikePost(context.Background(), 2)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})

	err = f.service.LikePost(context.Background(), 3)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})

	err = f.service.LikePost(context.Background(), 99)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})
}

func TestLikeAndUnlike(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())

	liked := baseState()
	liked.Posts[1].Likes = 1
	liked.Likes = append(liked.Likes, core.Like{PostID: 2, Liker: strings.ToUpper(Owner)})

	gomock.InOrder(
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentLikePost, Timeline: Timeline, PostID: 2}).
			Return(core.Receipt{Digest: "0xl1", Status: core.ReceiptStatusSuccess}, nil),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(liked, nil),
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentUnlikePost, Timeline: Timeline, PostID: 2}).
			Return(core.Receipt{Digest: "0xu1", Status: core.ReceiptStatusSuccess}, nil),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(baseState(), nil),
	)

	assert.NoError(t, f.service.LikePost(context.Background(), 2))
	assert.True(t, f.service.View().UserLikes.Has(2))

	assert.NoError(t, f.service.UnlikePost(context.Background(), 2))
	assert.False(t, f.service.View().UserLikes.Has(2))
}

func TestDeleteAuthorization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	state := baseState()
	state.Posts[0].Author = strings.ToUpper(Owner)
	f.mount(state)

	err := f.service.DeletePost(context.Background(), 2)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})

	err = f.service.DeletePost(context.Background(), 3)
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})

	deleted := baseState()
	deleted.Posts[0].IsDeleted = true

	gomock.InOrder(
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentDeletePost, Timeline: Timeline, PostID: 1}).
			Return(core.Receipt{Digest: "0xdd", Status: core.ReceiptStatusSuccess}, nil),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(deleted, nil),
	)

	assert.NoError(t, f.service.DeletePost(context.Background(), 1))

	view := f.service.View()
	assert.Len(t, view.Posts, 3)
	assert.Equal(t, 1, view.ActiveCount)
}

func TestAddComment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())

	err := f.service.AddComment(context.Background(), 2, " ")
	assert.ErrorIs(t, err, core.NewErrorValidation(core.EmptyContent))

	commented := baseState()
	commented.Posts[1].CommentCount = 1

	gomock.InOrder(
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentAddComment, Timeline: Timeline, PostID: 2, Content: "nice one"}).
			Return(core.Receipt{Digest: "0xc1", Status: core.ReceiptStatusSuccess}, nil),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(commented, nil),
	)

	assert.NoError(t, f.service.AddComment(context.Background(), 2, "nice one\n"))

	post, ok := f.service.snapshot.Load().Find(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), post.CommentCount)
}

func TestValidationFailureIsRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())

	err := f.service.CreatePost(context.Background(), "ab")
	assert.ErrorIs(t, err, core.NewErrorValidation(core.TooShort))

	view := f.service.View()
	assert.Equal(t, "failed", view.State.Phase)
	assert.Equal(t, core.NewErrorValidation(core.TooShort).Error(), view.State.Error)
	assert.Len(t, view.Posts, 3)

	err = f.service.CreatePost(context.Background(), strings.Repeat("a", 501))
	assert.ErrorIs(t, err, core.NewErrorValidation(core.TooLong))
}

func TestMutationWithoutTimeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})

	err := f.service.CreatePost(context.Background(), "hello world")
	assert.ErrorIs(t, err, core.NewErrorNoTimeline())

	err = f.service.FetchPosts(context.Background())
	assert.ErrorIs(t, err, core.NewErrorNoTimeline())
}

func TestGatewayFailureKeepsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())
	before := f.service.snapshot.Load()

	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		Return(core.Receipt{}, core.NewErrorGateway(errors.New("insufficient gas")))

	err := f.service.CreatePost(context.Background(), "hello world")
	var gerr *core.ErrorGateway
	assert.ErrorAs(t, err, &gerr)

	view := f.service.View()
	assert.Equal(t, "failed", view.State.Phase)
	assert.Equal(t, "insufficient gas", view.State.Error)
	assert.Same(t, before, f.service.snapshot.Load())
}

func TestTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: 20 * time.Millisecond})
	f.mount(baseState())

	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, intent core.Intent) (core.Receipt, error) {
			<-ctx.Done()
			return core.Receipt{}, core.NewErrorGateway(ctx.Err())
		})

	err := f.service.LikePost(context.Background(), 2)
	assert.ErrorIs(t, err, core.NewErrorTimeout())

	view := f.service.View()
	assert.False(t, view.State.IsPending)
	assert.Equal(t, "failed", view.State.Phase)
	assert.Equal(t, core.NewErrorTimeout().Error(), view.State.Error)
}

func TestCallerCancellationDoesNotAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Second})
	f.mount(baseState())

	ctx, cancel := context.WithCancel(context.Background())

	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(rctx context.Context, intent core.Intent) (core.Receipt, error) {
			cancel()
			assert.NoError(t, rctx.Err())
			return core.Receipt{Digest: "0xd5", Status: core.ReceiptStatusSuccess}, nil
		})
	f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(baseState(), nil)

	assert.NoError(t, f.service.LikePost(ctx, 2))
	assert.Equal(t, "settled", f.service.View().State.Phase)
}

func TestDisconnectAbortsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Minute})
	f.mount(baseState())

	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, intent core.Intent) (core.Receipt, error) {
			<-ctx.Done()
			return core.Receipt{}, core.NewErrorGateway(ctx.Err())
		})
	f.identity.EXPECT().Forget(gomock.Any(), Owner).Return(nil)

	done := make(chan error)
	go func() {
		done <- f.service.CreatePost(context.Background(), "never settles")
	}()

	assert.Eventually(t, func() bool {
		return f.service.View().State.IsPending
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, f.service.Disconnect(context.Background()))

	err := <-done
	assert.ErrorIs(t, err, core.NewErrorNotConnected())

	view := f.service.View()
	assert.False(t, view.State.IsPending)
	assert.Equal(t, core.NewErrorNotConnected().Error(), view.State.Error)
	assert.Empty(t, view.TimelineID)
	assert.Empty(t, view.Posts)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Second})
	f.mount(baseState())

	older := baseState()
	newer := withPost(baseState(), core.Post{ID: 4, Author: Owner, Content: "newest", Timestamp: 1700000004000})

	entered := make(chan struct{})
	release := make(chan struct{})

	gomock.InOrder(
		f.gateway.EXPECT().
			GetContainer(gomock.Any(), Timeline).
			DoAndReturn(func(ctx context.Context, id string) (core.ContainerState, error) {
				close(entered)
				<-release
				return older, nil
			}),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(newer, nil),
	)

	done := make(chan error)
	go func() {
		done <- f.service.FetchPosts(context.Background())
	}()

	<-entered
	assert.True(t, f.service.View().IsFetchingPosts)
	assert.NoError(t, f.service.FetchPosts(context.Background()))

	close(release)
	assert.NoError(t, <-done)

	view := f.service.View()
	assert.False(t, view.IsFetchingPosts)
	assert.Len(t, view.Posts, 4)
	assert.Equal(t, "newest", view.Posts[3].Content)
}

func TestFetchErrorKeepsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())

	gomock.InOrder(
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(core.ContainerState{}, core.NewErrorGateway(errors.New("node unreachable"))),
		f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(baseState(), nil),
	)

	err := f.service.FetchPosts(context.Background())
	assert.Error(t, err)

	view := f.service.View()
	assert.Equal(t, "node unreachable", view.FetchError)
	assert.Len(t, view.Posts, 3)
	assert.Equal(t, "idle", view.State.Phase)

	assert.NoError(t, f.service.FetchPosts(context.Background()))
	assert.Empty(t, f.service.View().FetchError)
}

func TestCreateTimeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})

	gomock.InOrder(
		f.gateway.EXPECT().
			Execute(gomock.Any(), core.Intent{Kind: core.IntentInitializeTimeline}).
			Return(core.Receipt{Digest: "0xi1", Status: core.ReceiptStatusSuccess, Created: []string{Timeline}}, nil),
		f.identity.EXPECT().Remember(gomock.Any(), Owner, Timeline).Return(nil),
		f.gateway.EXPECT().
			GetContainer(gomock.Any(), Timeline).
			Return(core.ContainerState{ID: Timeline, Owner: Owner}, nil).
			Times(1),
	)

	assert.NoError(t, f.service.CreateTimeline(context.Background()))

	view := f.service.View()
	assert.Equal(t, Timeline, view.TimelineID)
	assert.Equal(t, "0xi1", view.State.Hash)
	assert.Equal(t, 0, view.ActiveCount)

	err := f.service.CreateTimeline(context.Background())
	assert.ErrorAs(t, err, &core.ErrorInvalidStateTransition{})
}

func TestDisconnectWhileInitializeSettles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	settled := atomic.Bool{}
	paused := make(chan struct{})
	resume := make(chan struct{})
	pauseOnce := atomic.Bool{}

	// the first view rendered after settlement blocks until the test resumes it
	wallet := mock_core.NewMockWallet(ctrl)
	wallet.EXPECT().IsConnected().Return(true).AnyTimes()
	wallet.EXPECT().CurrentAccount().DoAndReturn(func() string {
		if settled.Load() && pauseOnce.CompareAndSwap(false, true) {
			close(paused)
			<-resume
		}
		return Owner
	}).AnyTimes()

	gateway := mock_core.NewMockGatewayService(ctrl)
	identity := mock_core.NewMockIdentityService(ctrl)

	gateway.EXPECT().
		Execute(gomock.Any(), core.Intent{Kind: core.IntentInitializeTimeline}).
		DoAndReturn(func(ctx context.Context, intent core.Intent) (core.Receipt, error) {
			settled.Store(true)
			return core.Receipt{Digest: "0xi2", Status: core.ReceiptStatusSuccess, Created: []string{Timeline}}, nil
		})
	identity.EXPECT().Forget(gomock.Any(), Owner).Return(nil)

	s := NewService(gateway, identity, wallet, tracker.New(), core.Config{RequestTimeout: time.Second}).(*service)
	s.account = Owner

	_, stop := s.Watch()
	defer stop()

	created := make(chan error)
	go func() {
		created <- s.CreateTimeline(context.Background())
	}()

	<-paused

	disconnected := make(chan error)
	go func() {
		disconnected <- s.Disconnect(context.Background())
	}()

	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.account == ""
	}, time.Second, 5*time.Millisecond)

	close(resume)
	assert.NoError(t, <-created)
	assert.NoError(t, <-disconnected)

	s.mu.RLock()
	assert.Empty(t, s.account)
	assert.Empty(t, s.timelineID)
	s.mu.RUnlock()
	assert.Nil(t, s.snapshot.Load())
}

func TestClientDeadlineIsGatewayError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{RequestTimeout: time.Minute})
	f.mount(baseState())

	f.gateway.EXPECT().
		Execute(gomock.Any(), gomock.Any()).
		Return(core.Receipt{}, core.NewErrorGateway(context.DeadlineExceeded))

	err := f.service.LikePost(context.Background(), 2)
	assert.False(t, errors.Is(err, core.NewErrorTimeout()))

	var gerr *core.ErrorGateway
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, "failed", f.service.View().State.Phase)
}

func TestSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	assert.Empty(t, f.service.Search("post"))

	f.mount(baseState())
	assert.Len(t, f.service.Search("POST"), 2)
	assert.Len(t, f.service.Search("gone"), 0)
	assert.Len(t, f.service.Search("iota1"), 2)
	assert.Len(t, f.service.Search(Other[:10]), 1)
}

func TestWatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl, core.Config{})
	f.mount(baseState())
	f.gateway.EXPECT().GetContainer(gomock.Any(), Timeline).Return(withPost(baseState(), core.Post{ID: 4, Author: Other, Content: "fresh"}), nil)

	views, cancel := f.service.Watch()
	defer cancel()

	assert.NoError(t, f.service.FetchPosts(context.Background()))

	select {
	case view := <-views:
		assert.False(t, view.IsFetchingPosts)
		assert.Len(t, view.Posts, 4)
	case <-time.After(time.Second):
		t.Fatal("no view received")
	}

	cancel()
	_, ok := <-views
	assert.False(t, ok)
}
