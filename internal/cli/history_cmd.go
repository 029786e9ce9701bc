// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/codechat/internal/config"
	"github.com/jeranaias/codechat/internal/export"
	"github.com/jeranaias/codechat/internal/session"
	"github.com/jeranaias/codechat/internal/util"
)

// RunHistory implements `codechat history`.
func RunHistory(args Args) error {
	parser := NewArgParser(args.Raw)

	dir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	store, err := session.NewStore(dir)
	if err != nil {
		return err
	}

	switch {
	case parser.HasFlag("show"):
		return showSession(store, parser.Flag("show"))

	case parser.HasFlag("export"):
		id := parser.Flag("export")
		format, err := export.ParseFormat(parser.Flag("format"))
		if err != nil {
			return err
		}
		s, err := store.Load(id)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("chat_%s%s", util.TruncateRunes(id, 8), format.Extension())
		if err := export.WriteFile(s, format, path); err != nil {
			return err
		}
		fmt.Printf("%s exported to %s\n", SuccessStyle.Render("ok:"), path)
		return nil

	case parser.HasFlag("delete"):
		id := parser.Flag("delete")
		if err := store.Delete(id); err != nil {
			return err
		}
		fmt.Printf("%s deleted %s\n", SuccessStyle.Render("ok:"), id)
		return nil

	case parser.HasFlag("clear"):
		n, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("%s deleted %d sessions\n", SuccessStyle.Render("ok:"), n)
		return nil

	default:
		metas, err := store.List()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("no saved sessions")
			return nil
		}
		fmt.Print(session.FormatList(metas))
		return nil
	}
}

func showSession(store *session.Store, id string) error {
	s, err := store.Load(id)
	if err != nil {
		return err
	}
	rendered, err := export.Render(s, export.FormatMarkdown)
	if err != nil {
		return err
	}
	if IsStdoutTTY() {
		rendered = renderMarkdown(rendered)
	}
	fmt.Print(rendered)
	return nil
}
