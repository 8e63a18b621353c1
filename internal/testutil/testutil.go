// Package testutil provides test helpers for mailtrends tests.
//
//   - assert.go: assertion helpers (MustNoErr, AssertStrings, ...)
//   - fs_helpers.go: filesystem fixtures (WriteFile, MustExist)
//   - email/: raw RFC 5322 message builder
//   - recordtest/: message.Record builder for corpus, thread and stats tests
package testutil
