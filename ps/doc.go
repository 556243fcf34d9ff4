// Package ps is AetherDB's persistence layer: the live in-memory table
// store and the encrypted snapshot format that makes it durable.
//
// The Store holds every table's schema and rows behind a single
// read-write lock. Nothing touches disk until a snapshot is saved;
// Save writes the whole database as one file and Load replaces the
// whole database from one, so a snapshot is always internally
// consistent.
//
// # Snapshot format
//
// The plaintext form is a 4-byte magic, a version byte, and a CBOR
// payload holding every table plus the access-control state. Saving
// with a passphrase wraps that in AES-256-GCM under a scrypt-derived
// key; the encrypted file is salt || nonce || ciphertext with no
// plaintext header at all.
//
// Load keeps two failure classes apart: ErrDecrypt means the
// passphrase was wrong, *FormatError means the bytes are not a
// snapshot this build can read.
//
// Snapshot paths may also be file://, http(s):// or s3:// URLs; HTTP
// is read-only.
package ps
