// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seriesctl is the operator CLI for series identity maintenance.
//
// It runs duplicate scans, previews and applies merges, resolves ad-hoc
// queries against the catalogue and manages the database schema, all against
// the same PostgreSQL database the API server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
