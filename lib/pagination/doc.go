// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pagination tracks continuation tokens for requests whose
// results arrive in pages.
//
// A [Pager] holds the live tokens of one operation family (browse,
// history data, history events). After each request the caller feeds
// the per-target results to [Pager.AfterFetch], which keeps only the
// targets whose token came back non-empty. A browse has one target; a
// history read across several nodes has one target per node, and each
// node drops out of the set as soon as the server stops returning a
// token for it while its siblings continue.
//
// The absence of tokens is the only completion signal. A page with
// rows but no token is done; a page with no rows but a token is not.
//
// [Pager.FetchNext] hands the pending set to the caller's fetch
// function, which re-issues the request with the tokens substituted for
// the original query parameters. [Pager.Release] gives the server-side
// resources back; it always drops the local tokens, whether or not the
// release call succeeds.
//
// Pager is safe for concurrent use. The fetch and release functions are
// called without the lock held.
package pagination
