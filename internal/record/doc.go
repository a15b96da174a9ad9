// Package record defines the archive record model and its serialization.
//
// Two record kinds move through the store, codec, and archive layers:
//
//   - Asset: one per uploaded file/image, identified by a client-generated
//     UUIDv7 and deduplicated on import by its content hash.
//   - HistoryItem: one per archive/query event, deduplicated by id since
//     events have no natural content hash.
//
// Records are tagged with an explicit Kind rather than moving through the
// layers as untyped values; the import boundary validates candidates before
// they are trusted.
//
// # Serialization
//
// MarshalCanonical produces RFC 8785 canonical JSON (UTF-16 code unit key
// ordering, NFC normalized strings, no HTML escaping, no floats, no nulls).
// Export payloads and golden fixtures use it so the wire form is
// deterministic across runs and platforms.
//
// # Hashing
//
// Hasher computes the primary SHA-256 content hash and the legacy MD5
// checksum over raw asset bytes. Hashing never fails the caller: the digest
// degrades through a fallback chain and, at worst, collapses to a sentinel
// value with the Degraded flag set.
package record
