// Package codec serializes process state for checkpoint/restore.
//
// JSON-shaped values (primitives, ordered sequences, string-keyed
// mappings) encode directly as canonical JSON. Registered user types
// encode as an envelope
//
//	{"data": ..., "namespace": "...", "type": "..."}
//
// where data is the value's own MarshalState output when implemented, or
// its plain exported-field mapping otherwise. Decoding resolves envelopes
// through a Registry that user types join at registration time, before
// any process holding them is checkpointed. An envelope whose tag is not
// registered fails with UnresolvedTypeError and aborts the whole
// deserialization.
//
// Canonical encoding (sorted keys, NFC-normalized strings, no HTML
// escaping) makes serialization repeatable: equal values always produce
// byte-identical text, which is what makes checkpoints comparable.
package codec
