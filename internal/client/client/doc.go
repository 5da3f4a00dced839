// Package client contains the client side of the groupshare protocol.
//
// # Overview
//
// The package provides:
//  1. An API contract (see the Client interface) for everything a front end
//     needs: Connect, Register/Login/Logout, group creation, verification
//     and listing, single-file upload, download of a whole group, removal,
//     and Disconnect.
//  2. A TCP implementation (see TCPClient) that performs the key handshake,
//     seals every control message for the server key and speaks the
//     transfer framing for file bytes.
//
// # Error Handling
//
// Conditions callers usually branch on are sentinel errors usable with
// errors.Is: ErrUnavailable, ErrNotConnected, ErrUnauthorized,
// ErrUnexpectedReply, ErrRegistrationFailed and common.ErrPayloadTooLarge.
// ERR replies from the server are returned as
// *protocol.RemoteError, which also matches the sentinel of its code.
//
// Concurrency & Contexts
//
// A TCPClient serializes its operations; one command is in flight at a
// time. Cancelling the context of a running operation closes the
// connection, since the stream cannot be resynchronized afterwards.
package client
