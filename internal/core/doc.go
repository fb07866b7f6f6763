// Package core provides the sealsheet archive operations.
//
// Core operations include:
//   - Init: create an archive sealed with a password
//   - Add: seal the records of a JSON export, resolving key conflicts
//   - Show/Export: open records, or print the encoded text for the sheet
//   - Diff: compare sealed records with a new export
//   - Remove, ChangePassword, Compact
//
// Every record is sealed on its own as OpenSSL-compatible text, so a
// single line of the exported sheet can be decrypted with
//
//	openssl enc -d -aes-256-cbc -pbkdf2 -iter N -base64 -A -k PASSWORD
//
// without sealsheet.
//
// Conflicts during Add support these strategies:
//   - Keep the sealed version
//   - Replace it with the source version
//   - Keep both (the source version gets a " (N)" key)
//   - Ask for each conflict, optionally showing a diff
package core
