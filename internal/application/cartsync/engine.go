// internal/application/cartsync/engine.go
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
	sessiondom "storefront/internal/domain/session"
)

var (
	// ErrMergeFailed is returned by HandleSession when the login merge could
	// not reach the remote store. The canonical cart keeps the local data and
	// the next login transition for the same uid retries the merge.
	ErrMergeFailed = errors.New("cartsync: merge on login failed")
	ErrClosed      = errors.New("cartsync: engine closed")
)

const defaultRemoteTimeout = 10 * time.Second

type mergeState int

const (
	mergeIdle mergeState = iota
	mergeRunning
	mergeDone
)

// Options configures an Engine.
type Options struct {
	Local  cartdom.LocalStore
	Remote cartdom.RemoteStore
	Logger *zap.Logger

	// ClearOnLogout empties the canonical cart and the local store when the
	// session ends. When false the cart stays on the device for the next login.
	ClearOnLogout bool

	// RemoteTimeout bounds each background remote write. Zero means 10s.
	RemoteTimeout time.Duration
}

// Status is a point-in-time view of the engine's session bookkeeping.
type Status struct {
	UID     string `json:"uid,omitempty"`
	Merged  bool   `json:"merged"`
	Merging bool   `json:"merging"`
	Pending int    `json:"pendingWrites"`
}

// Engine owns the canonical cart and keeps the local and remote stores in
// step with it across the session lifecycle.
//
// All state below mu is written only while mu is held. Remote I/O never
// runs under mu; local store writes do, so they stay ordered with the
// in-memory transitions.
type Engine struct {
	local         cartdom.LocalStore
	remote        cartdom.RemoteStore
	log           *zap.Logger
	clearOnLogout bool
	timeout       time.Duration

	mu       sync.Mutex
	state    cartdom.Cart
	version  uint64
	uid      string
	gen      uint64
	merge    mergeState
	pending  []cartdom.Action
	unsub    func()
	inflight int
	idle     chan struct{}
	deferred *remoteSnapshot
	closed   bool

	wg sync.WaitGroup

	obsMu        sync.Mutex
	observers    map[int]func(cartdom.Cart)
	nextObserver int
	published    uint64
}

type remoteSnapshot struct {
	uid  string
	gen  uint64
	cart cartdom.Cart
}

// New builds an engine and seeds the canonical cart from the local store.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Local == nil {
		return nil, errors.New("cartsync: local store is nil")
	}
	if opts.Remote == nil {
		return nil, errors.New("cartsync: remote store is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RemoteTimeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}

	e := &Engine{
		local:         opts.Local,
		remote:        opts.Remote,
		log:           logger.Named("cart_sync"),
		clearOnLogout: opts.ClearOnLogout,
		timeout:       timeout,
		observers:     map[int]func(cartdom.Cart){},
	}
	e.state = e.readLocal(ctx)
	return e, nil
}

// ========================================
// Reads
// ========================================

// Snapshot returns a copy of the canonical cart.
func (e *Engine) Snapshot() cartdom.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		UID:     e.uid,
		Merged:  e.merge == mergeDone,
		Merging: e.merge == mergeRunning,
		Pending: e.inflight,
	}
}

// Subscribe registers fn for every change of the canonical cart. fn must not
// call back into the engine's mutating methods.
func (e *Engine) Subscribe(fn func(cartdom.Cart)) func() {
	e.obsMu.Lock()
	e.nextObserver++
	id := e.nextObserver
	e.observers[id] = fn
	e.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.obsMu.Lock()
			delete(e.observers, id)
			e.obsMu.Unlock()
		})
	}
}

// ========================================
// Session transitions
// ========================================

// HandleSession reacts to identity transitions. Re-emits of the current
// state are ignored.
func (e *Engine) HandleSession(ctx context.Context, st sessiondom.State) error {
	if !st.IsAuthenticated() {
		e.signedOut(ctx)
		return nil
	}
	uid := strings.TrimSpace(st.UID)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.uid == uid && e.merge != mergeIdle {
		e.mu.Unlock()
		return nil
	}
	switched := e.uid != "" && e.uid != uid
	e.mu.Unlock()

	if switched {
		e.signedOut(ctx)
	}
	return e.signedIn(ctx, uid)
}

func (e *Engine) signedIn(ctx context.Context, uid string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.uid == uid && e.merge != mergeIdle {
		e.mu.Unlock()
		return nil
	}
	e.gen++
	gen := e.gen
	e.uid = uid
	e.merge = mergeRunning
	e.pending = nil
	// Merge input is the local mirror as of the guard; later mutations are
	// replayed from pending.
	local := e.state.Clone()
	e.mu.Unlock()

	log := e.log.With(zap.String("uid", uid))
	log.Info("merge start")

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	remote, err := e.remote.Get(rctx, uid)
	if err != nil {
		return e.mergeFailed(log, gen, "get", err)
	}
	if !e.current(gen) {
		log.Info("merge discarded: session changed during remote read")
		return nil
	}

	merged := cartdom.Merge(local, remote)
	if !local.IsEmpty() {
		if err := e.remote.Put(rctx, uid, merged); err != nil {
			return e.mergeFailed(log, gen, "put", err)
		}
	}

	e.mu.Lock()
	if e.closed || e.gen != gen {
		e.mu.Unlock()
		log.Info("merge discarded: session changed")
		return nil
	}
	e.setStateLocked(ctx, merged)
	pending := e.pending
	e.pending = nil
	for _, a := range pending {
		e.applyLocked(ctx, a, true)
	}
	e.merge = mergeDone
	snap, version := e.state.Clone(), e.version
	e.mu.Unlock()

	log.Info("merge done",
		zap.Int("local_items", local.Len()),
		zap.Int("remote_items", remote.Len()),
		zap.Int("merged_items", snap.Len()),
		zap.Int("replayed", len(pending)),
	)
	e.publish(snap, version)

	e.openSubscription(ctx, uid, gen)
	return nil
}

func (e *Engine) mergeFailed(log *zap.Logger, gen uint64, step string, cause error) error {
	e.mu.Lock()
	stale := e.gen != gen
	if !stale {
		// Guard reset; mutations queued during the merge stay local only.
		e.merge = mergeIdle
		e.pending = nil
	}
	e.mu.Unlock()

	if stale {
		log.Info("merge discarded after failure", zap.String("step", step), zap.Error(cause))
		return nil
	}
	log.Warn("merge failed", zap.String("step", step), zap.Error(cause))
	return fmt.Errorf("%w: %s: %w", ErrMergeFailed, step, cause)
}

func (e *Engine) signedOut(ctx context.Context) {
	e.mu.Lock()
	if e.uid == "" {
		e.mu.Unlock()
		return
	}
	uid := e.uid
	e.gen++
	e.uid = ""
	e.merge = mergeIdle
	e.pending = nil
	e.deferred = nil
	unsub := e.unsub
	e.unsub = nil

	cleared := false
	if e.clearOnLogout {
		e.state = cartdom.Cart{Items: []cartdom.LineItem{}}
		e.version++
		if err := e.local.Clear(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("local clear failed", zap.Error(err))
		}
		cleared = true
	}
	snap, version := e.state.Clone(), e.version
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	e.log.Info("signed out", zap.String("uid", uid), zap.Bool("cleared", cleared))
	if cleared {
		e.publish(snap, version)
	}
}

func (e *Engine) openSubscription(ctx context.Context, uid string, gen uint64) {
	base := context.WithoutCancel(ctx)
	subCtx, cancel := context.WithCancel(base)
	stop, err := e.remote.Subscribe(subCtx, uid, func(c cartdom.Cart) {
		e.onRemote(base, remoteSnapshot{uid: uid, gen: gen, cart: c})
	})
	if err != nil {
		cancel()
		e.log.Warn("remote subscribe failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	unsub := func() {
		stop()
		cancel()
	}

	e.mu.Lock()
	if e.closed || e.gen != gen {
		e.mu.Unlock()
		unsub()
		return
	}
	prev := e.unsub
	e.unsub = unsub
	e.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// onRemote folds a pushed remote snapshot into the canonical cart.
func (e *Engine) onRemote(ctx context.Context, s remoteSnapshot) {
	e.mu.Lock()
	if e.closed || e.gen != s.gen || e.uid != s.uid || e.merge != mergeDone {
		e.mu.Unlock()
		return
	}
	if e.inflight > 0 {
		// Own writes still pending; keep only the latest push until they settle.
		e.deferred = &s
		e.mu.Unlock()
		return
	}
	changed := e.loadLocked(ctx, s.cart)
	snap, version := e.state.Clone(), e.version
	e.mu.Unlock()

	if changed {
		e.publish(snap, version)
	}
}

// ========================================
// Mutations
// ========================================

// Dispatch applies a cart action. The local store is written before
// Dispatch returns; the remote store is updated in the background once the
// login merge for the current session has completed.
func (e *Engine) Dispatch(ctx context.Context, a cartdom.Action) (cartdom.Cart, error) {
	e.mu.Lock()
	if e.closed {
		snap := e.state.Clone()
		e.mu.Unlock()
		return snap, ErrClosed
	}
	changed, err := e.applyLocked(ctx, a, e.merge == mergeDone)
	if err == nil && changed && e.merge == mergeRunning {
		e.pending = append(e.pending, a)
	}
	snap, version := e.state.Clone(), e.version
	e.mu.Unlock()

	if err != nil {
		return snap, err
	}
	if changed {
		e.publish(snap, version)
	}
	return snap, nil
}

// Clear empties the cart everywhere, e.g. after checkout.
func (e *Engine) Clear(ctx context.Context) (cartdom.Cart, error) {
	return e.Dispatch(ctx, cartdom.Clear{})
}

// Flush waits until every remote write issued so far has settled.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	ch := e.idle
	e.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the remote subscription and waits for background writes.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.gen++
	unsub := e.unsub
	e.unsub = nil
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	e.wg.Wait()
}

// applyLocked runs the reducer, writes through to the local store and, when
// toRemote is set and a user is signed in, schedules the remote write.
func (e *Engine) applyLocked(ctx context.Context, a cartdom.Action, toRemote bool) (bool, error) {
	prev := e.state
	next, changed, err := cartdom.Reduce(prev, a)
	if err != nil || !changed {
		return false, err
	}
	e.setStateLocked(ctx, next)

	if !toRemote || e.uid == "" {
		return true, nil
	}
	if in, ok := cartdom.IntentOf(a); ok {
		if in.Op == cartdom.OpDecrement && next.Qty(in.Item.ID) == 0 {
			in.Op = cartdom.OpRemoveEntirely
		}
		if cur, ok := next.Get(in.Item.ID); ok {
			in.Item.Product = cur.Product
		}
		e.goRemoteLocked(ctx, "upsert", func(ctx context.Context, uid string) error {
			return e.remote.UpsertOne(ctx, uid, in.Item, in.Op)
		}, zap.String("product_id", in.Item.ID), zap.Stringer("op", in.Op))
		return true, nil
	}
	full := next.Clone()
	e.goRemoteLocked(ctx, "put", func(ctx context.Context, uid string) error {
		return e.remote.Put(ctx, uid, full)
	}, zap.String("action", a.Kind()))
	return true, nil
}

func (e *Engine) setStateLocked(ctx context.Context, c cartdom.Cart) {
	e.state = c
	e.version++
	if err := e.local.Write(context.WithoutCancel(ctx), c); err != nil {
		e.log.Warn("local write failed", zap.Error(err))
	}
}

func (e *Engine) loadLocked(ctx context.Context, c cartdom.Cart) bool {
	if sameItems(e.state, c) {
		return false
	}
	next, _, err := cartdom.Reduce(e.state, cartdom.Load{Items: c.Items})
	if err != nil {
		e.log.Warn("remote snapshot rejected", zap.String("uid", e.uid), zap.Error(err))
		return false
	}
	e.setStateLocked(ctx, next)
	return true
}

// goRemoteLocked starts a fire-and-forget remote write for the current uid.
func (e *Engine) goRemoteLocked(ctx context.Context, op string, fn func(context.Context, string) error, fields ...zap.Field) {
	uid := e.uid
	if e.inflight == 0 {
		e.idle = make(chan struct{})
	}
	e.inflight++
	e.wg.Add(1)

	base := context.WithoutCancel(ctx)
	go func() {
		defer e.wg.Done()
		wctx, cancel := context.WithTimeout(base, e.timeout)
		err := fn(wctx, uid)
		cancel()
		if err != nil {
			e.log.Warn("remote write failed",
				append([]zap.Field{zap.String("uid", uid), zap.String("write", op), zap.Error(err)}, fields...)...)
		}
		e.writeSettled(base)
	}()
}

func (e *Engine) writeSettled(ctx context.Context) {
	e.mu.Lock()
	e.inflight--
	if e.inflight > 0 {
		e.mu.Unlock()
		return
	}
	changed := false
	if d := e.deferred; d != nil {
		e.deferred = nil
		if !e.closed && d.gen == e.gen && d.uid == e.uid && e.merge == mergeDone {
			changed = e.loadLocked(ctx, d.cart)
		}
	}
	snap, version := e.state.Clone(), e.version
	idle := e.idle
	e.idle = nil
	e.mu.Unlock()

	if changed {
		e.publish(snap, version)
	}
	if idle != nil {
		close(idle)
	}
}

// ========================================
// Helpers
// ========================================

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.gen == gen
}

func (e *Engine) readLocal(ctx context.Context) cartdom.Cart {
	c, err := e.local.Read(ctx)
	if err != nil {
		e.log.Warn("local read failed, using empty cart", zap.Error(err))
		return cartdom.Cart{Items: []cartdom.LineItem{}}
	}
	if err := c.Validate(); err != nil {
		e.log.Warn("local cart malformed, using empty cart", zap.Error(err))
		return cartdom.Cart{Items: []cartdom.LineItem{}}
	}
	return c
}

// publish notifies observers unless a newer version was already delivered.
func (e *Engine) publish(c cartdom.Cart, version uint64) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	if version < e.published {
		return
	}
	e.published = version
	for _, fn := range e.observers {
		fn(c.Clone())
	}
}

func sameItems(a, b cartdom.Cart) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i] != b.Items[i] {
			return false
		}
	}
	return true
}
