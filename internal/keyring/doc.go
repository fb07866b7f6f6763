// Package keyring stores archive passwords in the operating system keyring
// (macOS Keychain, Secret Service, Windows Credential Manager).
package keyring
