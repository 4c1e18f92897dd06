// Package id provides identifier generation for netty.
//
// Two formats are used across the codebase:
//
//   - Domain IDs: random UUIDs naming an isolation domain. Every server start
//     gets a fresh one, so two hosted applications never share a key.
//   - ULIDs: 26-character, time-sortable identifiers for request log entries.
package id
