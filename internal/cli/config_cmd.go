// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/codechat/internal/config"
)

// RunConfig implements `codechat config`.
func RunConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch {
	case parser.HasFlag("reset"):
		fresh := config.Default()
		if err := fresh.Save(); err != nil {
			return fmt.Errorf("write defaults: %w", err)
		}
		fmt.Println(SuccessStyle.Render("configuration reset to defaults"))
		return nil

	case parser.HasFlag("set"):
		pair := parser.Flag("set")
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("usage: config --set key=value")
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("set"), key, value)
		return nil

	case parser.HasFlag("get"):
		key := parser.Flag("get")
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	default:
		// --list and the bare form both print everything.
		keys := config.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			v, err := cfg.Get(k)
			if err != nil {
				continue
			}
			fmt.Printf("%s %s\n", MutedStyle.Render(fmt.Sprintf("%-35s", k)), v)
		}
		return nil
	}
}
