// Package rmf decodes the RMF binary container format: a versioned, tagged
// layout for hierarchical scene and data graphs. It provides a bounds-checked
// [Cursor] over an immutable [Source], fixed-width primitive reads, a nesting
// [Trace] that mirrors the parse tree as indented diagnostic lines, and a
// [Loader] that validates the container header and hands control to a
// caller-supplied root record builder.
//
// The [Loader] does not know the record types of a document. A [RootFunc]
// receives the loader as decoding context and pulls bytes out of it using the
// cursor's primitive reads, or through [Decode], which walks a target struct
// type and fills its fields in declaration order from the stream.
package rmf
