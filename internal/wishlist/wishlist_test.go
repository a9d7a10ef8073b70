package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records calls and can hold them until released.
type fakeAPI struct {
	mu      sync.Mutex
	ids     model.WishlistIDs
	loadErr error
	failOn  map[string]error
	calls   []string
	gate    chan struct{}
	entered chan string
}

func (f *fakeAPI) Wishlist(ctx context.Context, force bool) (model.WishlistIDs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append(model.WishlistIDs(nil), f.ids...), nil
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	gate, entered := f.gate, f.entered
	err := f.failOn[op]
	f.mu.Unlock()

	if entered != nil {
		entered <- op
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) AddToWishlist(ctx context.Context, id string) error {
	return f.record("add:" + id)
}

func (f *fakeAPI) RemoveFromWishlist(ctx context.Context, id string) error {
	return f.record("remove:" + id)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestLoad_NormalisesIDs(t *testing.T) {
	var ids model.WishlistIDs
	require.NoError(t, json.Unmarshal([]byte(`{"results":[{"product":{"id":42}},{"product":7},{"id":"9"},11]}`), &ids))

	api := &fakeAPI{ids: ids}
	store := New(api, zerolog.Nop())

	require.NoError(t, store.Load(context.Background(), false))

	assert.Equal(t, []string{"11", "42", "7", "9"}, store.IDs())
	assert.True(t, store.IsWishlisted("42"))
	assert.True(t, store.IsWishlisted(ID(42)))
	assert.True(t, store.IsWishlisted(ID(int64(7))))
	assert.True(t, store.IsWishlisted(ID(9.0)))
	assert.False(t, store.IsWishlisted("8"))
}

func TestLoad_ErrorKeepsState(t *testing.T) {
	api := &fakeAPI{ids: model.WishlistIDs{"1", "2"}}
	store := New(api, zerolog.Nop())
	require.NoError(t, store.Load(context.Background(), false))

	api.loadErr = errors.New("backend down")
	err := store.Load(context.Background(), true)
	require.Error(t, err)

	assert.Equal(t, []string{"1", "2"}, store.IDs())
}

func TestToggle_AddAndRemove(t *testing.T) {
	api := &fakeAPI{}
	store := New(api, zerolog.Nop())
	ctx := context.Background()

	member, err := store.Toggle(ctx, "42")
	require.NoError(t, err)
	assert.True(t, member)
	assert.True(t, store.IsWishlisted("42"))
	assert.Equal(t, StateCommitted, store.State("42"))

	member, err = store.Toggle(ctx, "42")
	require.NoError(t, err)
	assert.False(t, member)
	assert.False(t, store.IsWishlisted("42"))

	assert.Equal(t, []string{"add:42", "remove:42"}, api.Calls())
}

func TestToggle_LoadsBeforeFirstFlip(t *testing.T) {
	api := &fakeAPI{ids: model.WishlistIDs{"7"}}
	store := New(api, zerolog.Nop())

	member, err := store.Toggle(context.Background(), "7")
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, []string{"remove:7"}, api.Calls())
}

func TestToggle_LoadFailureSendsNothing(t *testing.T) {
	api := &fakeAPI{loadErr: errors.New("backend down")}
	store := New(api, zerolog.Nop())

	_, err := store.Toggle(context.Background(), "7")
	require.Error(t, err)
	assert.Empty(t, api.Calls())
	assert.False(t, store.IsWishlisted("7"))
}

func TestToggle_ReloadsAfterReset(t *testing.T) {
	api := &fakeAPI{ids: model.WishlistIDs{"7"}}
	store := New(api, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, false))

	store.Reset()
	member, err := store.Toggle(ctx, "7")
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, []string{"remove:7"}, api.Calls())
}

func TestToggle_OptimisticThenRollback(t *testing.T) {
	api := &fakeAPI{
		failOn:  map[string]error{"add:42": errors.New("server error")},
		gate:    make(chan struct{}),
		entered: make(chan string, 1),
	}
	store := New(api, zerolog.Nop())

	type result struct {
		member bool
		err    error
	}
	done := make(chan result, 1)
	go func() {
		m, err := store.Toggle(context.Background(), "42")
		done <- result{m, err}
	}()

	assert.Equal(t, "add:42", <-api.entered)
	// Shown as wishlisted while the request is pending.
	assert.True(t, store.IsWishlisted("42"))
	assert.Equal(t, StatePending, store.State("42"))

	close(api.gate)
	res := <-done
	require.Error(t, res.err)
	assert.False(t, res.member)
	assert.False(t, store.IsWishlisted("42"))
	assert.Equal(t, StateRolledBack, store.State("42"))
}

func TestToggle_CoalescesWhilePending(t *testing.T) {
	api := &fakeAPI{
		gate:    make(chan struct{}),
		entered: make(chan string, 4),
	}
	store := New(api, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]bool, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		m, err := store.Toggle(ctx, "5")
		assert.NoError(t, err)
		results[0] = m
	}()
	assert.Equal(t, "add:5", <-api.entered)

	// Two more toggles while the add is pending: remove, then add again.
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := store.Toggle(ctx, "5")
			assert.NoError(t, err)
			results[i] = m
		}(i)
		require.Eventually(t, func() bool { return store.IsWishlisted("5") == (i%2 == 0) }, time.Second, time.Millisecond)
	}

	close(api.gate)
	wg.Wait()

	// Net effect is one add; the later toggles never produced a request.
	assert.Equal(t, []string{"add:5"}, api.Calls())
	assert.Equal(t, []bool{true, true, true}, results)
	assert.True(t, store.IsWishlisted("5"))
	assert.Equal(t, StateCommitted, store.State("5"))
}

func TestToggle_PendingReconcilesToLatest(t *testing.T) {
	api := &fakeAPI{
		gate:    make(chan struct{}),
		entered: make(chan string, 4),
	}
	store := New(api, zerolog.Nop())
	ctx := context.Background()

	first := make(chan bool, 1)
	go func() {
		m, _ := store.Toggle(ctx, "8")
		first <- m
	}()
	assert.Equal(t, "add:8", <-api.entered)

	second := make(chan bool, 1)
	go func() {
		m, _ := store.Toggle(ctx, "8")
		second <- m
	}()
	require.Eventually(t, func() bool { return !store.IsWishlisted("8") }, time.Second, time.Millisecond)

	// Release the add; the driver then issues exactly one remove.
	api.gate <- struct{}{}
	assert.Equal(t, "remove:8", <-api.entered)
	api.gate <- struct{}{}

	assert.False(t, <-first)
	assert.False(t, <-second)
	assert.Equal(t, []string{"add:8", "remove:8"}, api.Calls())
}

func TestLoad_KeepsPendingOptimisticValue(t *testing.T) {
	api := &fakeAPI{
		gate:    make(chan struct{}),
		entered: make(chan string, 1),
	}
	store := New(api, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		_, _ = store.Toggle(context.Background(), "3")
		close(done)
	}()
	<-api.entered

	// The backend does not know about the pending add yet.
	require.NoError(t, store.Load(context.Background(), true))
	assert.True(t, store.IsWishlisted("3"))

	close(api.gate)
	<-done
	assert.True(t, store.IsWishlisted("3"))
}

func TestToggle_EmptyID(t *testing.T) {
	store := New(&fakeAPI{}, zerolog.Nop())
	_, err := store.Toggle(context.Background(), "  ")
	require.Error(t, err)
}

func TestReset(t *testing.T) {
	api := &fakeAPI{ids: model.WishlistIDs{"1"}}
	store := New(api, zerolog.Nop())
	require.NoError(t, store.Load(context.Background(), false))

	store.Reset()
	assert.Empty(t, store.IDs())
}

func TestID(t *testing.T) {
	assert.Equal(t, "42", ID(42))
	assert.Equal(t, "42", ID(int64(42)))
	assert.Equal(t, "42", ID(42.0))
	assert.Equal(t, "42", ID(" 42 "))
	assert.Equal(t, "42", ID(json.Number("42")))
	assert.Equal(t, "abc", ID("abc"))
}
