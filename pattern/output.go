package pattern

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/event"
)

// Output caches whatever a render function writes.
type Output struct {
	*base
	pool tiercache.Pool[[]byte]
}

func NewOutput(pool tiercache.Pool[[]byte], opts ...Option) (*Output, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	return &Output{base: newBase(opts), pool: pool}, nil
}

// Render writes the output cached under key to w and reports true. On a miss
// it runs render with a writer that feeds both w and a capture buffer, then
// saves the captured bytes. Listeners of EventOutputEnd receive the
// *tiercache.Item[[]byte] and may replace its value before it is saved.
// Output from a failed render is never cached.
func (o *Output) Render(ctx context.Context, key string, w io.Writer, render func(io.Writer) error) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: missing output key", tiercache.ErrInvalidKey)
	}
	if render == nil {
		return false, errors.New("pattern: nil render func")
	}
	if w == nil {
		w = io.Discard
	}
	key = o.key(key)

	if err := o.events.Trigger(ctx, &event.Event{Name: EventOutputStart, Key: key}); err != nil {
		return false, err
	}

	it, err := o.pool.GetItem(ctx, key)
	if err != nil {
		return false, err
	}
	if it.IsHit() {
		if err := o.events.Trigger(ctx, &event.Event{Name: EventOutputHit, Key: key, Item: it}); err != nil {
			return false, err
		}
		_, err := w.Write(it.Get())
		return true, err
	}

	var buf bytes.Buffer
	if err := render(io.MultiWriter(w, &buf)); err != nil {
		return false, err
	}

	// empty output is still a value; a nil slice would be saved as none
	it.Set(append([]byte{}, buf.Bytes()...))
	if o.ttl > 0 {
		if err := it.ExpiresAfter(o.ttl); err != nil {
			o.log.Warn("output ttl rejected", tiercache.Fields{"key": key, "err": err})
		}
	}
	if err := o.events.Trigger(ctx, &event.Event{Name: EventOutputEnd, Key: key, Item: it}); err != nil {
		return false, err
	}
	if _, err := o.pool.Save(ctx, it); err != nil {
		o.log.Warn("output save failed", tiercache.Fields{"key": key, "err": err})
	}
	return false, nil
}
