// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/index"
	"github.com/jeranaias/codechat/internal/session"
	"github.com/jeranaias/codechat/internal/util"
)

// RunSearch implements `codechat search`. It prefers the FTS index,
// syncing it against the session files first, and falls back to a
// linear scan when the index cannot be opened.
func RunSearch(args Args) error {
	query := strings.Join(args.Raw, " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: codechat search <query>")
	}

	dir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	store, err := session.NewStore(dir)
	if err != nil {
		return err
	}

	if idx, err := index.Open(dir); err == nil {
		defer idx.Close()
		if _, err := idx.Sync(store); err == nil {
			hits, err := idx.Search(query, 50)
			if err == nil {
				printIndexHits(hits)
				return nil
			}
		}
	}

	hits, err := store.Search(query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%s  %s: %s\n",
			MutedStyle.Render(util.TruncateRunes(h.SessionID, 8)), h.Role, h.Excerpt)
	}
	return nil
}

func printIndexHits(hits []index.Hit) {
	if len(hits) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, h := range hits {
		fmt.Printf("%s  %s: %s\n",
			MutedStyle.Render(util.TruncateRunes(h.SessionID, 8)), h.Role, h.Snippet)
	}
}
