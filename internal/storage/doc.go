// Package storage provides the BBolt archive behind sealsheet.
//
// The archive file uses four buckets:
//   - config: version, timestamps, PBKDF2 iteration count, archive id (unencrypted)
//   - index: record keys, sizes, sources (unencrypted, for ls/status)
//   - sealed: the OpenSSL-compatible base64 text of every record
//   - private: sealed password check and content hashes
//
// Everything under sealed and private is already encrypted by the caller;
// storage never sees a password or plaintext.
package storage
