// Package cli provides the interactive groupshare command-line client.
//
// It wires configuration, the protocol client and an interactive REPL.
// Typical flow: connect, register or log in, create or join a group, then
// upload, download and remove files in it.
//
// Key features:
//   - Register / Login / Logout
//   - Groups: list, create, join (password check)
//   - Files: upload one file, download a whole group, remove a file
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
