// Package models holds the vault's persisted entities and the pure
// transforms between plaintext input, sealed rows and renderable views.
//
// Record is a row of the allmima table; HistoryEntry is an immutable
// snapshot of a Record taken before it was deleted or changed. Both carry
// their sensitive fields as secretbox envelopes (ciphertext plus nonce, both
// nil when the field is empty) and both implement Decryptable, so the same
// helper turns either into plaintext.
//
// Nothing here touches storage or the session; callers pass the key in.
package models
