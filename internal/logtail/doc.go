// Package logtail reads the tail of Pantry's log file and parses its records
// for the Problems view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines strings while scanning the file once,
// so memory stays O(maxLines) however large the log grows:
//
//	1. Store each line at the current index
//	2. Advance the index, wrapping at maxLines
//	3. Return the buffer starting at the oldest line
//
// A missing file is not an error; the log may simply not exist yet.
//
// # Parsing
//
// The logger writes one JSON object per line (slog's JSON handler):
//
//	{"time":"2026-10-18T14:32:15.5Z","level":"WARN","msg":"meal request failed","op":"random","error":"..."}
//
// ParseLine maps time, level and msg onto Entry and keeps every other key in
// Attrs as a string. Lines written by the pretty handler, or anything else
// that is not JSON, become info entries with the raw text as the message.
//
// Problems filters entries to warn and above and orders them newest first.
package logtail
