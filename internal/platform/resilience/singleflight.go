package resilience

import "sync"

// Group deduplicates concurrent calls sharing a key; late callers wait for
// the first and receive its result.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*flight[T]
}

type flight[T any] struct {
	wg  sync.WaitGroup
	val T
	err error
}

// Do reports shared=true when the result came from another caller's flight.
func (g *Group[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	if f, ok := g.calls[key]; ok {
		g.mu.Unlock()
		f.wg.Wait()
		return f.val, f.err, true
	}
	f := &flight[T]{}
	f.wg.Add(1)
	g.calls[key] = f
	g.mu.Unlock()

	defer func() {
		f.wg.Done()
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
	}()
	f.val, f.err = fn()
	return f.val, f.err, false
}
