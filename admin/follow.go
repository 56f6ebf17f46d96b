package admin

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcefinder/sourcefinder/session"
)

// Follow keeps o in step with st. Read models are dropped whenever the
// token changes, and the active tab is reloaded in the background once an
// admin identity resolves for the new token. The returned func stops
// following.
func (o *Orchestrator) Follow(ctx context.Context, st *session.Store) (stop func()) {
	var (
		mu       sync.Mutex
		token    = st.Token()
		reloaded string
	)
	return st.Subscribe(func(snap session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()

		if snap.Token != token {
			token = snap.Token
			reloaded = ""
			o.Reset()
		}
		if snap.Token == "" || snap.Identity == nil || !snap.Identity.IsAdmin() || reloaded == snap.Token {
			return
		}
		reloaded = snap.Token
		tab := o.ActiveTab()
		go func() {
			if err := o.Activate(ctx, tab); err != nil && !errors.Is(err, ErrStale) {
				o.log.Debug().Err(err).Str("tab", tab.String()).Msg("follow reload failed")
			}
		}()
	})
}
