// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/codechat/internal/session"
)

// Watcher keeps the index in step with the sessions directory while the
// program runs. It is best-effort: a watch failure degrades /search to
// the linear store scan, never breaks the chat loop.
type Watcher struct {
	idx      *Index
	store    *session.Store
	debounce time.Duration
}

// NewWatcher wires an index to a store.
func NewWatcher(idx *Index, store *session.Store) *Watcher {
	return &Watcher{idx: idx, store: store, debounce: 500 * time.Millisecond}
}

// Run watches the sessions directory until ctx is cancelled. Events are
// debounced because every session save produces a temp-file rename
// burst.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.store.Dir()); err != nil {
		return err
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			id, isTranscript := transcriptID(ev.Name)
			if !isTranscript {
				continue
			}
			pending[id] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			_ = err // transient watch errors are ignored

		case <-timer.C:
			for id := range pending {
				w.reindex(id)
				delete(pending, id)
			}
		}
	}
}

func (w *Watcher) reindex(id string) {
	s, err := w.store.Load(id)
	if err != nil {
		// File gone or mid-write: treat vanished files as deletions.
		w.idx.RemoveSession(id)
		return
	}
	w.idx.IndexSession(s)
}

// transcriptID extracts the session id from a watched path, filtering
// out the index database and atomic-write temp files.
func transcriptID(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") || strings.Contains(base, ".tmp-") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}
