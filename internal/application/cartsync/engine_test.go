package cartsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/adapters/out/memory"
	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
	sessiondom "storefront/internal/domain/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ------------------------------------------------------------
// fixtures
// ------------------------------------------------------------

type upsertCall struct {
	UID string
	ID  string
	Op  cartdom.Op
}

// recordingRemote wraps the in-memory store, counting calls and allowing a
// Get to be held open or failed.
type recordingRemote struct {
	*memory.CartStore

	mu         sync.Mutex
	gets       int
	puts       int
	upserts    []upsertCall
	getErr     error
	getGate    chan struct{}
	getEntered chan struct{}
	beforeGet  func()

	upsertGate    chan struct{}
	upsertEntered chan struct{}
}

func newRecordingRemote() *recordingRemote {
	return &recordingRemote{CartStore: memory.NewCartStore()}
}

func (r *recordingRemote) Get(ctx context.Context, uid string) (cartdom.Cart, error) {
	r.mu.Lock()
	r.gets++
	err, gate, entered, before := r.getErr, r.getGate, r.getEntered, r.beforeGet
	r.beforeGet = nil
	r.mu.Unlock()

	if before != nil {
		before()
	}
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return cartdom.Cart{}, err
	}
	return r.CartStore.Get(ctx, uid)
}

func (r *recordingRemote) Put(ctx context.Context, uid string, c cartdom.Cart) error {
	r.mu.Lock()
	r.puts++
	r.mu.Unlock()
	return r.CartStore.Put(ctx, uid, c)
}

func (r *recordingRemote) UpsertOne(ctx context.Context, uid string, item cartdom.LineItem, op cartdom.Op) error {
	r.mu.Lock()
	r.upserts = append(r.upserts, upsertCall{UID: uid, ID: item.ID, Op: op})
	gate, entered := r.upsertGate, r.upsertEntered
	r.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return r.CartStore.UpsertOne(ctx, uid, item, op)
}

// holdUpserts blocks every UpsertOne until release is called.
func (r *recordingRemote) holdUpserts() (entered <-chan struct{}, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	ent := make(chan struct{}, 8)
	r.upsertGate, r.upsertEntered = gate, ent
	return ent, func() {
		r.mu.Lock()
		r.upsertGate, r.upsertEntered = nil, nil
		r.mu.Unlock()
		close(gate)
	}
}

func (r *recordingRemote) onNextGet(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeGet = fn
}

// hookedLocal runs a one-shot hook before the next Read.
type hookedLocal struct {
	*memory.LocalCartStore

	mu         sync.Mutex
	beforeRead func()
}

func (l *hookedLocal) Read(ctx context.Context) (cartdom.Cart, error) {
	l.mu.Lock()
	fn := l.beforeRead
	l.beforeRead = nil
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
	return l.LocalCartStore.Read(ctx)
}

func (l *hookedLocal) onNextRead(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.beforeRead = fn
}

func (r *recordingRemote) hold() (entered <-chan struct{}, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	ent := make(chan struct{}, 1)
	r.getGate, r.getEntered = gate, ent
	return ent, func() {
		r.mu.Lock()
		r.getGate, r.getEntered = nil, nil
		r.mu.Unlock()
		close(gate)
	}
}

func (r *recordingRemote) setGetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErr = err
}

func (r *recordingRemote) counts() (gets, puts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets, r.puts
}

func (r *recordingRemote) upsertCalls() []upsertCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]upsertCall(nil), r.upserts...)
}

func prod(id string) productdom.Product {
	return productdom.Product{ID: id, Title: "Product " + id, Price: 10}
}

func item(id string, qty int) cartdom.LineItem {
	return cartdom.LineItem{Product: prod(id), Qty: qty}
}

func cartOf(items ...cartdom.LineItem) cartdom.Cart {
	return cartdom.Cart{Items: items}
}

func login(uid string) sessiondom.State {
	return sessiondom.Authenticated(sessiondom.Identity{UID: uid})
}

type harness struct {
	engine *Engine
	remote *recordingRemote
	local  *memory.LocalCartStore
}

func newHarness(t *testing.T, local cartdom.Cart, clearOnLogout bool) *harness {
	t.Helper()
	h := &harness{
		remote: newRecordingRemote(),
		local:  memory.NewLocalCartStore(local),
	}
	e, err := New(context.Background(), Options{
		Local:         h.local,
		Remote:        h.remote,
		ClearOnLogout: clearOnLogout,
		RemoteTimeout: time.Second,
	})
	require.NoError(t, err)
	h.engine = e
	t.Cleanup(e.Close)
	return h
}

func (h *harness) seedRemote(t *testing.T, uid string, c cartdom.Cart) {
	t.Helper()
	require.NoError(t, h.remote.CartStore.Put(context.Background(), uid, c))
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.engine.Flush(ctx))
}

func (h *harness) localItems(t *testing.T) []cartdom.LineItem {
	t.Helper()
	c, err := h.local.Read(context.Background())
	require.NoError(t, err)
	return c.Items
}

func (h *harness) remoteItems(t *testing.T, uid string) []cartdom.LineItem {
	t.Helper()
	c, err := h.remote.CartStore.Get(context.Background(), uid)
	require.NoError(t, err)
	return c.Items
}

// ------------------------------------------------------------
// merge on login
// ------------------------------------------------------------

func TestLogin_EmptyLocalAdoptsRemoteWithoutWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	h.seedRemote(t, "u1", cartOf(item("p1", 3)))

	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	assert.Equal(t, []cartdom.LineItem{item("p1", 3)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p1", 3)}, h.localItems(t))
	_, puts := h.remote.counts()
	assert.Zero(t, puts)
	assert.Empty(t, h.remote.upsertCalls())
}

func TestLogin_LocalOnlyIsWrittenToRemote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), true)

	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.remoteItems(t, "u1"))
	_, puts := h.remote.counts()
	assert.Equal(t, 1, puts)
}

func TestLogin_MaxRuleAndUnion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), true)
	h.seedRemote(t, "u1", cartOf(item("p1", 5), item("p2", 1)))

	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	want := []cartdom.LineItem{item("p1", 5), item("p2", 1)}
	assert.Equal(t, want, h.engine.Snapshot().Items)
	assert.Equal(t, want, h.localItems(t))
	assert.Equal(t, want, h.remoteItems(t, "u1"))
}

func TestLogin_BothEmpty(t *testing.T) {
	h := newHarness(t, cartdom.Cart{}, true)

	require.NoError(t, h.engine.HandleSession(context.Background(), login("u1")))

	assert.True(t, h.engine.Snapshot().IsEmpty())
	_, puts := h.remote.counts()
	assert.Zero(t, puts)
	assert.True(t, h.engine.Status().Merged)
}

func TestLogin_ReemitDoesNotMergeAgain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)

	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	require.NoError(t, h.engine.HandleSession(ctx, login(" u1 ")))

	gets, puts := h.remote.counts()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 1, puts)
	assert.Equal(t, 1, h.remote.Subscribers("u1"))
}

func TestLogin_MutationsDuringMergeAreReplayedAfterIt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)
	h.seedRemote(t, "u1", cartOf(item("p1", 3)))

	entered, release := h.remote.hold()
	errCh := make(chan error, 1)
	go func() { errCh <- h.engine.HandleSession(ctx, login("u1")) }()
	<-entered

	// Re-emit while the merge is still running.
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	got, err := h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p2")})
	require.NoError(t, err)
	assert.Equal(t, []cartdom.LineItem{item("p1", 1), item("p2", 1)}, got.Items, "optimistic local update")
	assert.Empty(t, h.remote.upsertCalls(), "no remote write before the merge completes")

	release()
	require.NoError(t, <-errCh)
	h.flush(t)

	want := []cartdom.LineItem{item("p1", 3), item("p2", 1)}
	assert.Equal(t, want, h.engine.Snapshot().Items)
	assert.Equal(t, want, h.localItems(t))
	assert.Equal(t, want, h.remoteItems(t, "u1"))
	assert.Equal(t, []upsertCall{{UID: "u1", ID: "p2", Op: cartdom.OpIncrement}}, h.remote.upsertCalls())

	gets, _ := h.remote.counts()
	assert.Equal(t, 1, gets)
}

func TestLogin_MutationAtMergeStartCountsOnce(t *testing.T) {
	ctx := context.Background()
	local := &hookedLocal{LocalCartStore: memory.NewLocalCartStore(cartOf(item("p1", 1)))}
	remote := newRecordingRemote()
	e, err := New(ctx, Options{Local: local, Remote: remote, RemoteTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	// The add lands as soon as the merge starts touching either store.
	var once sync.Once
	var addErr error
	add := func() {
		once.Do(func() {
			_, addErr = e.Dispatch(ctx, cartdom.AddItem{Product: prod("p2")})
		})
	}
	local.onNextRead(add)
	remote.onNextGet(add)

	require.NoError(t, e.HandleSession(ctx, login("u1")))
	flushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, e.Flush(flushCtx))
	require.NoError(t, addErr)

	want := []cartdom.LineItem{item("p1", 1), item("p2", 1)}
	assert.Equal(t, want, e.Snapshot().Items)

	got, err := local.LocalCartStore.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got.Items)

	rc, err := remote.CartStore.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, rc.Items)
	assert.Equal(t, []upsertCall{{UID: "u1", ID: "p2", Op: cartdom.OpIncrement}}, remote.upsertCalls())
}

func TestLogin_StaleMergeIsDiscarded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)
	h.seedRemote(t, "u1", cartOf(item("p9", 4)))

	entered, release := h.remote.hold()
	errCh := make(chan error, 1)
	go func() { errCh <- h.engine.HandleSession(ctx, login("u1")) }()
	<-entered

	require.NoError(t, h.engine.HandleSession(ctx, sessiondom.Unauthenticated()))
	release()
	require.NoError(t, <-errCh)

	assert.True(t, h.engine.Snapshot().IsEmpty())
	_, puts := h.remote.counts()
	assert.Zero(t, puts)
	assert.Equal(t, []cartdom.LineItem{item("p9", 4)}, h.remoteItems(t, "u1"))
	assert.Zero(t, h.remote.Subscribers("u1"))

	st := h.engine.Status()
	assert.Empty(t, st.UID)
	assert.False(t, st.Merged)
}

func TestLogin_FailureKeepsLocalAndAllowsRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), true)
	h.remote.setGetErr(errors.New("unavailable"))

	err := h.engine.HandleSession(ctx, login("u1"))
	require.ErrorIs(t, err, ErrMergeFailed)
	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.engine.Snapshot().Items)
	assert.False(t, h.engine.Status().Merged)

	// Still local only.
	_, err = h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p2")})
	require.NoError(t, err)
	h.flush(t)
	assert.Empty(t, h.remote.upsertCalls())

	h.remote.setGetErr(nil)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	want := []cartdom.LineItem{item("p1", 2), item("p2", 1)}
	assert.Equal(t, want, h.engine.Snapshot().Items)
	assert.Equal(t, want, h.remoteItems(t, "u1"))
	gets, _ := h.remote.counts()
	assert.Equal(t, 2, gets)
}

func TestLogin_SwitchingUserSignsOutFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)
	h.seedRemote(t, "u2", cartOf(item("p7", 2)))

	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	require.NoError(t, h.engine.HandleSession(ctx, login("u2")))

	assert.Equal(t, []cartdom.LineItem{item("p7", 2)}, h.engine.Snapshot().Items)
	assert.Zero(t, h.remote.Subscribers("u1"))
	assert.Equal(t, 1, h.remote.Subscribers("u2"))
	assert.Equal(t, "u2", h.engine.Status().UID)
}

// ------------------------------------------------------------
// mutations
// ------------------------------------------------------------

func TestDispatch_RemoveLastUnitIssuesRemoveEntirely(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	got, err := h.engine.Dispatch(ctx, cartdom.RemoveOne{Product: prod("p1")})
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Empty(t, h.localItems(t))

	h.flush(t)
	assert.Equal(t, []upsertCall{{UID: "u1", ID: "p1", Op: cartdom.OpRemoveEntirely}}, h.remote.upsertCalls())
	assert.Empty(t, h.remoteItems(t, "u1"))
}

func TestDispatch_OpsMapToRemoteWrites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	for _, a := range []cartdom.Action{
		cartdom.AddItem{Product: prod("p1")},
		cartdom.AddItem{Product: prod("p1")},
		cartdom.RemoveOne{Product: prod("p1")},
		cartdom.AddItem{Product: prod("p2")},
		cartdom.RemoveAll{Product: prod("p2")},
		cartdom.RemoveOne{Product: prod("absent")},
	} {
		_, err := h.engine.Dispatch(ctx, a)
		require.NoError(t, err)
		h.flush(t)
	}

	assert.Equal(t, []upsertCall{
		{UID: "u1", ID: "p1", Op: cartdom.OpIncrement},
		{UID: "u1", ID: "p1", Op: cartdom.OpIncrement},
		{UID: "u1", ID: "p1", Op: cartdom.OpDecrement},
		{UID: "u1", ID: "p2", Op: cartdom.OpIncrement},
		{UID: "u1", ID: "p2", Op: cartdom.OpRemoveEntirely},
	}, h.remote.upsertCalls())
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.remoteItems(t, "u1"))
}

func TestDispatch_LoggedOutStaysLocal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)

	_, err := h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p1")})
	require.NoError(t, err)
	h.flush(t)

	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.localItems(t))
	assert.Empty(t, h.remote.upsertCalls())
	gets, puts := h.remote.counts()
	assert.Zero(t, gets)
	assert.Zero(t, puts)
}

func TestDispatch_RejectsInvalidActions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 1)), true)

	got, err := h.engine.Dispatch(ctx, nil)
	require.ErrorIs(t, err, cartdom.ErrUnknownAction)
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, got.Items)

	_, err = h.engine.Dispatch(ctx, cartdom.Load{Items: []cartdom.LineItem{item("p1", 0)}})
	require.ErrorIs(t, err, cartdom.ErrMalformedCart)
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.engine.Snapshot().Items)
}

func TestDispatch_ConcurrentAddsConverge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p1")})
		}()
	}
	wg.Wait()
	h.flush(t)

	assert.Equal(t, n, h.engine.Snapshot().Qty("p1"))
	assert.Equal(t, []cartdom.LineItem{item("p1", n)}, h.remoteItems(t, "u1"))
	gets, _ := h.remote.counts()
	assert.Equal(t, 1, gets, "self notifications never re-run the merge")
}

func TestClear_EmptiesRemoteWhenSignedIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	_, err := h.engine.Clear(ctx)
	require.NoError(t, err)
	h.flush(t)

	assert.True(t, h.engine.Snapshot().IsEmpty())
	assert.Empty(t, h.remoteItems(t, "u1"))
	_, puts := h.remote.counts()
	assert.Equal(t, 2, puts)
}

// ------------------------------------------------------------
// remote push
// ------------------------------------------------------------

func TestRemotePush_FoldsIntoCanonicalAndLocal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	var mu sync.Mutex
	var seen []cartdom.Cart
	stop := h.engine.Subscribe(func(c cartdom.Cart) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	defer stop()

	// Another device writes the account cart.
	h.seedRemote(t, "u1", cartOf(item("p9", 4)))

	assert.Equal(t, []cartdom.LineItem{item("p9", 4)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p9", 4)}, h.localItems(t))

	mu.Lock()
	require.NotEmpty(t, seen)
	assert.Equal(t, []cartdom.LineItem{item("p9", 4)}, seen[len(seen)-1].Items)
	mu.Unlock()

	gets, puts := h.remote.counts()
	assert.Equal(t, 1, gets)
	assert.Zero(t, puts)
}

func TestRemotePush_DeferredUntilOwnWritesSettle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	var mu sync.Mutex
	var seen []cartdom.Cart
	stop := h.engine.Subscribe(func(c cartdom.Cart) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	defer stop()

	entered, release := h.remote.holdUpserts()
	_, err := h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p1")})
	require.NoError(t, err)
	<-entered

	// Two pushes from another device while our write is in flight.
	h.seedRemote(t, "u1", cartOf(item("p8", 2)))
	h.seedRemote(t, "u1", cartOf(item("p9", 4)))
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.engine.Snapshot().Items, "held while writing")
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.localItems(t))

	release()
	h.flush(t)

	want := []cartdom.LineItem{item("p1", 1), item("p9", 4)}
	assert.Equal(t, want, h.engine.Snapshot().Items)
	assert.Equal(t, want, h.localItems(t))
	assert.Equal(t, want, h.remoteItems(t, "u1"))

	mu.Lock()
	defer mu.Unlock()
	for _, c := range seen {
		_, ok := c.Get("p8")
		assert.False(t, ok, "superseded push must never be applied")
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, want, seen[len(seen)-1].Items)
}

func TestRemotePush_DeferredDroppedAfterLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, false)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	entered, release := h.remote.holdUpserts()
	_, err := h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p1")})
	require.NoError(t, err)
	<-entered

	h.seedRemote(t, "u1", cartOf(item("p9", 4)))
	require.NoError(t, h.engine.HandleSession(ctx, sessiondom.Unauthenticated()))

	release()
	h.flush(t)

	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p1", 1)}, h.localItems(t))
	assert.Equal(t, Status{}, h.engine.Status())
}

func TestRemotePush_IgnoredAfterLogout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	require.NoError(t, h.engine.HandleSession(ctx, sessiondom.Unauthenticated()))

	h.seedRemote(t, "u1", cartOf(item("p9", 4)))

	assert.True(t, h.engine.Snapshot().IsEmpty())
}

// ------------------------------------------------------------
// logout
// ------------------------------------------------------------

func TestLogout_ClearsAndResetsGuard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	require.NoError(t, h.engine.HandleSession(ctx, sessiondom.Unauthenticated()))

	assert.True(t, h.engine.Snapshot().IsEmpty())
	assert.Empty(t, h.localItems(t))
	assert.Zero(t, h.remote.Subscribers("u1"))
	st := h.engine.Status()
	assert.Empty(t, st.UID)
	assert.False(t, st.Merged)

	// Remote cart survives logout and comes back on the next login.
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.engine.Snapshot().Items)
	gets, _ := h.remote.counts()
	assert.Equal(t, 2, gets)
}

func TestLogout_KeepsCartWhenConfigured(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartOf(item("p1", 2)), false)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))
	require.NoError(t, h.engine.HandleSession(ctx, sessiondom.Unauthenticated()))

	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.engine.Snapshot().Items)
	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.localItems(t))
	assert.False(t, h.engine.Status().Merged)
}

func TestLogout_WithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t, cartOf(item("p1", 2)), true)

	require.NoError(t, h.engine.HandleSession(context.Background(), sessiondom.Unauthenticated()))

	assert.Equal(t, []cartdom.LineItem{item("p1", 2)}, h.engine.Snapshot().Items)
}

// ------------------------------------------------------------
// lifecycle
// ------------------------------------------------------------

func TestClose_RejectsFurtherWork(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, cartdom.Cart{}, true)
	require.NoError(t, h.engine.HandleSession(ctx, login("u1")))

	h.engine.Close()
	h.engine.Close()

	_, err := h.engine.Dispatch(ctx, cartdom.AddItem{Product: prod("p1")})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.engine.HandleSession(ctx, login("u2")), ErrClosed)
	assert.Zero(t, h.remote.Subscribers("u1"))
}

func TestNew_RequiresStores(t *testing.T) {
	_, err := New(context.Background(), Options{Remote: memory.NewCartStore()})
	assert.Error(t, err)
	_, err = New(context.Background(), Options{Local: memory.NewLocalCartStore(cartdom.Cart{})})
	assert.Error(t, err)
}
