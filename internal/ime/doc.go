// Package ime hosts the keyboard core inside an input method.
//
// # Architecture Overview
//
// A host input method (an iOS keyboard extension, an Android input method
// service, a desktop bridge or the keyboardctl CLI) recognizes touches
// and reports them as a gesture on an action. Everything after that
// happens here:
//
//	Touch → Gesture + Action
//	     ↓
//	[Session]
//	     ↓
//	Dispatcher → Proxy edits, Feedback, Keyboard type, Emojis, Autocomplete
//
// # Session Model
//
// A Session owns one keyboard context and the collaborators built from a
// config.Config: resolver (standard tables, optionally layered with an
// action table file), behavior policy, feedback engine, space bar drag
// handler, emoji tracker, autocomplete engine and the sqlite store.
//
// The dispatcher is single threaded by contract. Session serializes every
// call with a mutex so hosts may call it from any thread. Configuration
// changes picked up by config.Loader are applied with Reconfigure.
//
// Every session reports gesture counts and autocomplete latency to a
// metrics.KeyboardMetrics, shared through metrics.Default unless the
// host passes its own.
//
// # Text Documents
//
// Hosts that have a native text proxy pass it in. Everyone else gets a
// Document, an in-memory proxy whose counts are grapheme clusters, the
// unit UIKit uses for deleteBackward and adjustTextPosition.
//
// # Building Mobile Hosts
//
// MobileKeyboard is the gomobile surface. It only uses strings, numbers,
// byte slices and interfaces of those:
//
//	gomobile bind -target=ios -o Softkeys.xcframework ./internal/ime
//	gomobile bind -target=android -o softkeys.aar ./internal/ime
//
// Panics inside the core are recovered at this boundary and written as
// crash reports instead of taking the host process down.
package ime
