// Package records turns exported password-manager entries into the byte
// sequences that sealsheet seals.
//
// Input is JSON, either a flat array of entry objects or a group tree:
//
//	{"groups": [{"name": "Root", "entries": [...], "groups": [...]}]}
//
// Group trees are flattened depth-first, entries of a group before the
// entries of its subgroups. Each record is sealed as canonical JSON with
// sorted keys, so the same record always produces the same plaintext.
package records
