// Package codec implements the symmetric encryption and decoding layer used
// by encrypted archive exports.
//
// Secrets are never used directly as cipher keys: every secret, whether a
// user-supplied password or an injected application secret, runs through
// PBKDF2-SHA256 first. The cipher is AES-256-CBC with PKCS#7 padding and a
// fresh random IV per encryption; IV and ciphertext travel hex-encoded.
//
// Decoding an ambiguous byte blob back into structured data goes through an
// ordered strategy chain (UTF-8, Base64, Hex, Latin-1 - each followed by a
// JSON validity check) because archives may have been produced by an older
// or differently-configured encoder. Exhausting the chain is a typed
// DecodeError; corrupted data is never silently substituted.
package codec
