// Package sanitizer normalizes user-supplied text before validation and storage.
//
// All functions are idempotent: applying them twice yields the same result as
// applying them once. Invalid input degrades to an empty string rather than
// an error; validators reject the empty result.
//
// Normalization includes:
//   - Names and locations: collapse whitespace, trim leading/trailing spaces
//   - Resource types: uppercase, separators folded to single underscores ("meeting room" becomes "MEETING_ROOM")
package sanitizer
