// Package preview draws a span document's rendering in a terminal. Runs are colored with lipgloss, glyphs become small icons, and the result is wrapped by display
// width, one grapheme cluster at a time.
//
// It also computes the character-level edits between two renderings, for logging how a live preview evolves.
package preview
