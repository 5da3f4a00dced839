// Package protocol implements the groupshare wire format shared by server
// and client.
//
// A connection starts with a key handshake: the client writes its RSA public
// key, the server reads it and answers with its own. Each key travels as a
// big-endian uint16 length followed by a PEM SubjectPublicKeyInfo block.
//
// After the handshake the client sends frames:
//
//	kind (1 byte) | length (uint32, big-endian) | payload
//
// A KindSealed payload is an RSA-OAEP block holding a JSON Command. A
// KindTransfer payload is plain JSON FileMeta and is followed directly by
// exactly FileMeta.Filesize raw bytes.
//
// The server answers every frame with one reply: a 10-byte left-justified
// ASCII decimal length and that many bytes of body. A download-all reply
// carries the file count and is followed by one file record per file.
package protocol
