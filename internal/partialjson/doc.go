// Package partialjson decodes JSON-like text that may be cut off at any byte, as happens while a model is still streaming its answer.
//
// Each call reports the best value available so far, the unconsumed remainder, and an optional error. In Lenient mode, text that will plausibly be completed by more input
// is not an error: an unfinished string value is reported as Null inside objects, an object key whose name is cut off is left out entirely, and a half-written literal
// (ex: `tr`) is Null. Strict mode is used once the text is known to be final (see DecodeComplete).
//
// The decoder is a pure function of its input. It keeps no state between calls, so callers simply re-parse each growing snapshot.
package partialjson
