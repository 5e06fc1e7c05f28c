// Package tokenizer is a single-pass, character-level JSON state machine.
//
// A pass reads a bounded window of a byte source and lazily emits Records as
// containers close. In index-only mode every container and scalar is reported
// with its inclusive byte span; in value mode each non-empty container is
// reported with the scalars it holds directly, and an object's fields gathered
// so far are flushed as an interim record whenever a nested container opens.
// Nested containers are never folded into their parent's content.
//
// Bare literals are limited to null and integers; true, false and fractional
// numbers are malformed input for this engine.
package tokenizer
