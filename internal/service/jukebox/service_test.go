package jukebox

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jamqueue/server/internal/repository/connection"
	connInmemory "github.com/jamqueue/server/internal/repository/connection/inmemory"
	"github.com/jamqueue/server/internal/repository/queue"
	queueInmemory "github.com/jamqueue/server/internal/repository/queue/inmemory"
	"github.com/jamqueue/server/internal/resolver/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "supersecret"

// stubResolver resolves by title. A gate channel, when present, blocks the
// resolution until the test releases it.
type stubResolver struct {
	mu      sync.Mutex
	media   map[string]youtube.Media
	errs    map[string]error
	started chan string
	gates   map[string]chan struct{}
}

func (r *stubResolver) Resolve(ctx context.Context, title, artist string, durationMs int) (youtube.Media, error) {
	r.mu.Lock()
	gate := r.gates[title]
	r.mu.Unlock()

	if r.started != nil {
		r.started <- title
	}
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[title]; ok {
		return youtube.Media{}, err
	}
	if m, ok := r.media[title]; ok {
		return m, nil
	}
	return youtube.Media{}, youtube.ErrNoMatch
}

type fixture struct {
	service  *service
	resolver *stubResolver
}

func newFixture(t *testing.T, queueLimit int) *fixture {
	t.Helper()

	resolver := &stubResolver{
		media: map[string]youtube.Media{},
		errs:  map[string]error{},
		gates: map[string]chan struct{}{},
	}

	svc := NewService(
		queueInmemory.NewRepo(queueLimit),
		connInmemory.NewRepo(),
		resolver,
		&Config{Secret: testSecret, QueueLimit: queueLimit},
		slog.Default(),
	)

	return &fixture{service: svc, resolver: resolver}
}

func (f *fixture) connectAdmin(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	connectResp, err := f.service.Connect(ctx, &ConnectParams{Conn: connection.NewConn(&websocket.Conn{})})
	require.NoError(t, err)

	loginResp, err := f.service.AdminLogin(ctx, &AdminLoginParams{
		SenderId: connectResp.ClientId,
		Password: testSecret,
	})
	require.NoError(t, err)
	require.True(t, loginResp.Success)

	return connectResp.ClientId
}

func (f *fixture) connectListener(t *testing.T) string {
	t.Helper()

	connectResp, err := f.service.Connect(context.Background(), &ConnectParams{Conn: connection.NewConn(&websocket.Conn{})})
	require.NoError(t, err)

	return connectResp.ClientId
}

func addSongParams(title string) *AddSongParams {
	return &AddSongParams{
		TrackId:    "track-" + title,
		Title:      title,
		Artist:     "artist",
		DurationMs: 200000,
		AddedBy:    "tester",
	}
}

func assertDisjoint(t *testing.T, snapshot queue.Snapshot) {
	t.Helper()
	if snapshot.CurrentlyPlaying == nil {
		return
	}
	for _, s := range snapshot.Queue {
		assert.NotEqual(t, snapshot.CurrentlyPlaying.Timestamp, s.Timestamp,
			"playback slot and queue must hold disjoint timestamps")
	}
}

func TestAddSongPromotesOnEmptyQueue(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a", Title: "a (official audio)"}

	resp, err := f.service.AddSong(context.Background(), addSongParams("a"))
	require.NoError(t, err)

	assert.Empty(t, resp.Snapshot.Queue)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "a", resp.Snapshot.CurrentlyPlaying.Title)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying.VideoId)
	assert.Equal(t, "video-a", *resp.Snapshot.CurrentlyPlaying.VideoId)
	assertDisjoint(t, resp.Snapshot)
}

func TestAddSongQueuesBehindCurrent(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)

	resp, err := f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	require.Len(t, resp.Snapshot.Queue, 1)
	assert.Equal(t, "b", resp.Snapshot.Queue[0].Title)
	assert.Nil(t, resp.Snapshot.Queue[0].VideoId, "queued song must not be resolved yet")
	assert.Equal(t, "a", resp.Snapshot.CurrentlyPlaying.Title)
	assertDisjoint(t, resp.Snapshot)
}

func TestResolutionFailureSkipsToNextSong(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.errs["a"] = youtube.ErrNoMatch
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}
	f.resolver.gates["a"] = make(chan struct{})
	f.resolver.started = make(chan string, 2)

	ctx := context.Background()

	done := make(chan SnapshotResponse, 1)
	go func() {
		resp, err := f.service.AddSong(ctx, addSongParams("a"))
		assert.NoError(t, err)
		done <- resp
	}()

	// a is mid-resolution when b arrives
	require.Equal(t, "a", <-f.resolver.started)
	respB, err := f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)
	require.NotNil(t, respB.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "a", respB.Snapshot.CurrentlyPlaying.Title)
	assert.Len(t, respB.Snapshot.Queue, 1)

	close(f.resolver.gates["a"])
	require.Equal(t, "b", <-f.resolver.started)
	resp := <-done

	// a is discarded entirely, b plays
	assert.Empty(t, resp.Snapshot.Queue)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "b", resp.Snapshot.CurrentlyPlaying.Title)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying.VideoId)
	assert.Equal(t, "video-b", *resp.Snapshot.CurrentlyPlaying.VideoId)
}

func TestQueueExhaustedSettlesEmpty(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.errs["a"] = youtube.ErrNoMatch
	f.resolver.errs["b"] = youtube.ErrNoMatch

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	resp, err := f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	assert.Empty(t, resp.Snapshot.Queue)
	assert.Nil(t, resp.Snapshot.CurrentlyPlaying)
}

func TestEndSongAdvancesAtMostOnce(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}

	ctx := context.Background()
	respA, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	endedTimestamp := respA.Snapshot.CurrentlyPlaying.Timestamp

	resp, err := f.service.EndSong(ctx, &EndSongParams{Timestamp: endedTimestamp})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "b", resp.Snapshot.CurrentlyPlaying.Title)

	// a duplicate signal for the stale slot must not advance again
	resp, err = f.service.EndSong(ctx, &EndSongParams{Timestamp: endedTimestamp})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "b", resp.Snapshot.CurrentlyPlaying.Title)
}

func TestSkipSongByAdmin(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	resp, err := f.service.SkipSong(ctx, &SkipSongParams{SenderId: adminId})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "b", resp.Snapshot.CurrentlyPlaying.Title)

	// skipping the last song settles the slot empty
	resp, err = f.service.SkipSong(ctx, &SkipSongParams{SenderId: adminId})
	require.NoError(t, err)
	assert.Nil(t, resp.Snapshot.CurrentlyPlaying)

	// and skipping with nothing playing is a no-op
	resp, err = f.service.SkipSong(ctx, &SkipSongParams{SenderId: adminId})
	require.NoError(t, err)
	assert.Nil(t, resp.Snapshot.CurrentlyPlaying)
}

func TestSkipSongDeniedForNonAdmin(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	listenerId := f.connectListener(t)

	ctx := context.Background()
	before, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)

	_, err = f.service.SkipSong(ctx, &SkipSongParams{SenderId: listenerId})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// queue and slot identical before and after
	after := f.service.snapshotResponse()
	assert.Equal(t, before.Snapshot, after.Snapshot)
}

func TestRemoveCurrentlyPlayingAdvances(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	respA, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	resp, err := f.service.RemoveSong(ctx, &RemoveSongParams{
		SenderId:  adminId,
		Timestamp: respA.Snapshot.CurrentlyPlaying.Timestamp,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Snapshot.CurrentlyPlaying)
	assert.Equal(t, "b", resp.Snapshot.CurrentlyPlaying.Title)
	assert.Empty(t, resp.Snapshot.Queue)
}

func TestRemoveQueuedSong(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.media["b"] = youtube.Media{Id: "video-b"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	respB, err := f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)

	resp, err := f.service.RemoveSong(ctx, &RemoveSongParams{
		SenderId:  adminId,
		Timestamp: respB.Snapshot.Queue[0].Timestamp,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Snapshot.Queue)
	assert.Equal(t, "a", resp.Snapshot.CurrentlyPlaying.Title)
}

func TestRemoveStaleTimestampIsNoop(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	before, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)

	resp, err := f.service.RemoveSong(ctx, &RemoveSongParams{SenderId: adminId, Timestamp: 12345})
	require.NoError(t, err)
	assert.Equal(t, before.Snapshot, resp.Snapshot)
}

func TestRemoveSongMidResolution(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	f.resolver.gates["a"] = make(chan struct{})
	f.resolver.started = make(chan string, 1)
	adminId := f.connectAdmin(t)

	ctx := context.Background()

	done := make(chan SnapshotResponse, 1)
	go func() {
		resp, err := f.service.AddSong(ctx, addSongParams("a"))
		assert.NoError(t, err)
		done <- resp
	}()

	require.Equal(t, "a", <-f.resolver.started)

	// the slot holds a while it resolves; remove it out from under the resolver
	resolving := f.service.snapshotResponse()
	require.NotNil(t, resolving.Snapshot.CurrentlyPlaying)

	_, err := f.service.RemoveSong(ctx, &RemoveSongParams{
		SenderId:  adminId,
		Timestamp: resolving.Snapshot.CurrentlyPlaying.Timestamp,
	})
	require.NoError(t, err)

	close(f.resolver.gates["a"])
	<-done

	// the resolved media must not be committed for a removed song
	final := f.service.snapshotResponse()
	assert.Nil(t, final.Snapshot.CurrentlyPlaying)
	assert.Empty(t, final.Snapshot.Queue)
}

func TestReorderQueue(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)
	respC, err := f.service.AddSong(ctx, addSongParams("c"))
	require.NoError(t, err)

	require.Len(t, respC.Snapshot.Queue, 2)
	tsB := respC.Snapshot.Queue[0].Timestamp
	tsC := respC.Snapshot.Queue[1].Timestamp

	resp, err := f.service.ReorderQueue(ctx, &ReorderQueueParams{
		SenderId:   adminId,
		Timestamps: []int64{tsC, tsB},
	})
	require.NoError(t, err)
	require.Len(t, resp.Snapshot.Queue, 2)
	assert.Equal(t, tsC, resp.Snapshot.Queue[0].Timestamp)
	assert.Equal(t, tsB, resp.Snapshot.Queue[1].Timestamp)
}

func TestReorderQueueWithStaleSnapshotLeavesQueueUnchanged(t *testing.T) {
	f := newFixture(t, 25)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)
	respC, err := f.service.AddSong(ctx, addSongParams("c"))
	require.NoError(t, err)

	tsB := respC.Snapshot.Queue[0].Timestamp
	tsC := respC.Snapshot.Queue[1].Timestamp

	// tsB was removed concurrently; the stale order references it anyway
	_, err = f.service.RemoveSong(ctx, &RemoveSongParams{SenderId: adminId, Timestamp: tsB})
	require.NoError(t, err)

	resp, err := f.service.ReorderQueue(ctx, &ReorderQueueParams{
		SenderId:   adminId,
		Timestamps: []int64{tsC, tsB},
	})
	require.NoError(t, err)
	require.Len(t, resp.Snapshot.Queue, 1)
	assert.Equal(t, tsC, resp.Snapshot.Queue[0].Timestamp)
}

func TestAddSongQueueLimit(t *testing.T) {
	f := newFixture(t, 2)
	f.resolver.media["a"] = youtube.Media{Id: "video-a"}

	ctx := context.Background()
	_, err := f.service.AddSong(ctx, addSongParams("a"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("b"))
	require.NoError(t, err)
	_, err = f.service.AddSong(ctx, addSongParams("c"))
	require.NoError(t, err)

	_, err = f.service.AddSong(ctx, addSongParams("d"))
	assert.ErrorIs(t, err, queue.ErrQueueLimitReached)
}

func TestAdminLoginReplacesHolder(t *testing.T) {
	f := newFixture(t, 25)
	first := f.connectAdmin(t)

	ctx := context.Background()
	second := f.connectListener(t)

	resp, err := f.service.AdminLogin(ctx, &AdminLoginParams{SenderId: second, Password: testSecret})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.ReplacedConn)

	// the evicted holder lost its privileges
	_, err = f.service.SkipSong(ctx, &SkipSongParams{SenderId: first})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	f := newFixture(t, 25)
	listenerId := f.connectListener(t)

	resp, err := f.service.AdminLogin(context.Background(), &AdminLoginParams{
		SenderId: listenerId,
		Password: "wrong",
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.False(t, f.service.connRepo.IsAdmin(listenerId))
}

func TestSetVolumeValidatesRange(t *testing.T) {
	f := newFixture(t, 25)
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	_, err := f.service.SetVolume(ctx, &SetVolumeParams{SenderId: adminId, Volume: 101})
	assert.ErrorIs(t, err, ErrInvalidVolume)

	resp, err := f.service.SetVolume(ctx, &SetVolumeParams{SenderId: adminId, Volume: 42})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Volume)
}

func TestDeviceControlDeniedForNonAdmin(t *testing.T) {
	f := newFixture(t, 25)
	listenerId := f.connectListener(t)

	_, err := f.service.TogglePause(context.Background(), &TogglePauseParams{SenderId: listenerId})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDisconnectRevokesAdmin(t *testing.T) {
	f := newFixture(t, 25)
	adminId := f.connectAdmin(t)

	ctx := context.Background()
	require.NoError(t, f.service.Disconnect(ctx, &DisconnectParams{ClientId: adminId}))

	_, err := f.service.RelayPlayerState(ctx, &RelayPlayerStateParams{State: 1})
	assert.Error(t, err)
}

func TestRelayPlayerStateTargetsAdmin(t *testing.T) {
	f := newFixture(t, 25)
	f.connectAdmin(t)

	resp, err := f.service.RelayPlayerState(context.Background(), &RelayPlayerStateParams{State: 2})
	require.NoError(t, err)
	assert.NotNil(t, resp.AdminConn)
	assert.Equal(t, 2, resp.State)
}

func TestConcurrentAddsKeepTimestampsUnique(t *testing.T) {
	f := newFixture(t, 100)
	f.resolver.errs["x"] = youtube.ErrNoMatch

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.AddSong(context.Background(), addSongParams("x"))
			assert.NoError(t, err)
		}()
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent adds did not finish")
	}

	// every unresolvable song was drained
	final := f.service.snapshotResponse()
	assert.Empty(t, final.Snapshot.Queue)
	assert.Nil(t, final.Snapshot.CurrentlyPlaying)
}
