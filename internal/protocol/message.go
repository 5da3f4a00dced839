package protocol

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/cryptox"
)

// Actions understood by the server.
const (
	ActionLogin               = "login"
	ActionRegister            = "register"
	ActionReceiveFile         = "receiveFile"
	ActionSendAllFiles        = "sendAllFiles"
	ActionRemoveFile          = "removeFile"
	ActionSendAllGroups       = "sendAllGroups"
	ActionAddGroup            = "addGroup"
	ActionVerifyGroupPassword = "verifyGroupPassword"
	ActionDisconnect          = "disconnect"
	ActionLogout              = "logout"

	// ActionSendFile tags file records of a download-all reply.
	ActionSendFile = "sendFile"
)

// Command is the decrypted body of a sealed frame. Only the fields of the
// given Action are meaningful.
type Command struct {
	Action        string `json:"action"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	GroupName     string `json:"group_name,omitempty"`
	GroupPassword string `json:"group_password,omitempty"`
	Filename      string `json:"filename,omitempty"`
}

// Validate checks that the fields required by the action are present.
// Unknown actions pass; the dispatcher reports them.
func (c *Command) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", common.ErrMalformedMessage, c.Action, field)
	}

	switch c.Action {
	case "":
		return fmt.Errorf("%w: missing action", common.ErrMalformedMessage)
	case ActionLogin, ActionRegister:
		if c.Username == "" {
			return missing("username")
		}
		if c.Password == "" {
			return missing("password")
		}
	case ActionAddGroup:
		if c.GroupName == "" {
			return missing("group_name")
		}
		if c.GroupPassword == "" {
			return missing("group_password")
		}
	case ActionVerifyGroupPassword:
		if c.GroupName == "" {
			return missing("group_name")
		}
	case ActionSendAllFiles:
		if c.GroupName == "" {
			return missing("group_name")
		}
	case ActionRemoveFile:
		if c.GroupName == "" {
			return missing("group_name")
		}
		if c.Filename == "" {
			return missing("filename")
		}
	}
	return nil
}

// SealCommand serializes cmd and encrypts it for the server key. An encoded
// command over the OAEP bound fails with common.ErrPayloadTooLarge.
func SealCommand(pub *rsa.PublicKey, cmd Command) ([]byte, error) {
	plain, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return cryptox.Seal(pub, plain)
}

// OpenCommand decrypts and parses a sealed frame payload.
func OpenCommand(priv *rsa.PrivateKey, block []byte) (Command, error) {
	plain, err := cryptox.Open(priv, block)
	if err != nil {
		return Command{}, err
	}
	var cmd Command
	if err := json.Unmarshal(plain, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", common.ErrMalformedMessage, err)
	}
	if err := cmd.Validate(); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// FileMeta describes one file on the wire, both for uploads (transfer
// frames) and for download-all file records.
type FileMeta struct {
	Action    string `json:"action,omitempty"`
	Filename  string `json:"filename"`
	Filesize  int64  `json:"filesize"`
	GroupName string `json:"group_name"`
}

// ParseFileMeta decodes a transfer frame payload.
func ParseFileMeta(payload []byte) (FileMeta, error) {
	var m FileMeta
	if err := json.Unmarshal(payload, &m); err != nil {
		return m, fmt.Errorf("%w: %v", common.ErrMalformedMessage, err)
	}
	if m.Action != "" && m.Action != ActionReceiveFile {
		return m, fmt.Errorf("%w: transfer frame with action %q", common.ErrMalformedMessage, m.Action)
	}
	if m.Filesize < 0 {
		return m, fmt.Errorf("%w: negative filesize", common.ErrMalformedMessage)
	}
	return m, nil
}

// GroupEntry is one element of a group listing.
type GroupEntry struct {
	Name string `json:"name"`
}

// GroupList is the sendAllGroups reply body.
type GroupList struct {
	Groups []GroupEntry `json:"groups"`
}
