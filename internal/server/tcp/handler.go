package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

func (s *session) dispatch(ctx context.Context, cmd protocol.Command) error {
	switch cmd.Action {
	case protocol.ActionLogin:
		return s.handleLogin(ctx, cmd)
	case protocol.ActionRegister:
		return s.handleRegister(ctx, cmd)
	case protocol.ActionAddGroup:
		return s.handleAddGroup(ctx, cmd)
	case protocol.ActionVerifyGroupPassword:
		return s.handleVerifyGroupPassword(ctx, cmd)
	case protocol.ActionSendAllGroups:
		return s.handleSendAllGroups(ctx)
	case protocol.ActionSendAllFiles:
		return s.handleSendAllFiles(ctx, cmd)
	case protocol.ActionRemoveFile:
		return s.handleRemoveFile(ctx, cmd)
	case protocol.ActionLogout:
		return s.handleLogout(ctx, cmd)
	case protocol.ActionDisconnect:
		return s.handleDisconnect(ctx, cmd)
	case protocol.ActionReceiveFile:
		return fmt.Errorf("%w: receiveFile must be sent as a transfer frame", common.ErrMalformedMessage)
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownAction, cmd.Action)
	}
}

func (s *session) handleLogin(ctx context.Context, cmd protocol.Command) error {
	s.logger.Info(ctx, "Login request", "username", cmd.Username)

	ok, err := s.srv.users.CheckCredentials(ctx, cmd.Username, cmd.Password)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info(ctx, "Login failed", "username", cmd.Username)
		return s.reply(protocol.ReplyFalse)
	}

	s.login(ctx, cmd.Username)
	return s.reply(protocol.ReplyTrue)
}

func (s *session) handleRegister(ctx context.Context, cmd protocol.Command) error {
	s.logger.Info(ctx, "Registration request", "username", cmd.Username)

	err := s.srv.users.CreateUser(ctx, cmd.Username, cmd.Password)
	if errors.Is(err, common.ErrDuplicateUser) {
		s.logger.Info(ctx, "Registration refused, user exists", "username", cmd.Username)
		return s.reply(protocol.ReplyRegistrationFailed)
	}
	if err != nil {
		s.logger.Error(ctx, "Registration failed", "username", cmd.Username, "error", err)
		return s.reply(protocol.ReplyRegistrationFailed)
	}

	s.logger.Info(ctx, "Registered", "username", cmd.Username)
	return s.reply(protocol.ReplyRegistrationOK)
}

// handleAddGroup creates a group. A name that is already taken is not an
// error, and the existing password is left as it was.
func (s *session) handleAddGroup(ctx context.Context, cmd protocol.Command) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	if err := pathx.ValidateName(cmd.GroupName); err != nil {
		return err
	}

	err := s.srv.groups.Add(ctx, cmd.GroupName, cmd.GroupPassword)
	switch {
	case errors.Is(err, common.ErrDuplicateGroup):
		s.logger.Info(ctx, "group exists, ignored", "group", cmd.GroupName)
	case err != nil:
		return err
	default:
		s.grant(cmd.GroupName)
		s.logger.Info(ctx, "group created", "group", cmd.GroupName, "username", s.username)
	}
	return s.reply(protocol.ReplyOK)
}

func (s *session) handleVerifyGroupPassword(ctx context.Context, cmd protocol.Command) error {
	if err := s.requireLogin(); err != nil {
		return err
	}

	password := cmd.GroupPassword
	if password == "" {
		password = cmd.Password
	}

	if !s.srv.groups.Verify(cmd.GroupName, password) {
		return s.reply(protocol.ReplyFalse)
	}
	s.grant(cmd.GroupName)
	return s.reply(protocol.ReplyTrue)
}

func (s *session) handleSendAllGroups(ctx context.Context) error {
	if err := s.requireLogin(); err != nil {
		return err
	}

	names := s.srv.groups.Names()
	list := protocol.GroupList{Groups: make([]protocol.GroupEntry, 0, len(names))}
	for _, n := range names {
		list.Groups = append(list.Groups, protocol.GroupEntry{Name: n})
	}

	body, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.reply(string(body))
}

func (s *session) handleSendAllFiles(ctx context.Context, cmd protocol.Command) error {
	if err := s.requireGroup(cmd.GroupName); err != nil {
		return err
	}
	_, err := s.srv.files.SendAll(ctx, cmd.GroupName, s.w)
	return err
}

func (s *session) handleRemoveFile(ctx context.Context, cmd protocol.Command) error {
	if err := s.requireGroup(cmd.GroupName); err != nil {
		return err
	}
	if err := pathx.ValidateName(cmd.Filename); err != nil {
		return err
	}
	if err := s.srv.files.Remove(ctx, cmd.GroupName, cmd.Filename); err != nil {
		return err
	}
	return s.reply(protocol.ReplyOK)
}

// receiveFile stores an upload or, when it is refused, drains its bytes so
// the next frame is read from the right offset. An announced size over the
// limit is answered and the connection is closed instead.
func (s *session) receiveFile(ctx context.Context, meta protocol.FileMeta) error {
	s.logger.Info(ctx, "Upload request", "group", meta.GroupName, "filename", meta.Filename, "filesize", meta.Filesize)

	if s.srv.opts.MaxFileSize > 0 && meta.Filesize > s.srv.opts.MaxFileSize {
		s.closing = true
		return fmt.Errorf("%w: %d bytes over limit of %d", common.ErrPayloadTooLarge, meta.Filesize, s.srv.opts.MaxFileSize)
	}

	if err := s.requireGroup(meta.GroupName); err != nil {
		if derr := s.srv.files.Discard(s.r, meta.Filesize); derr != nil {
			return derr
		}
		return err
	}

	if err := s.srv.files.Receive(ctx, meta, s.r); err != nil {
		return err
	}
	return s.reply(protocol.ReplyOK)
}

// handleLogout and handleDisconnect act on the user bound to this session;
// a username in the command is only logged.
func (s *session) handleLogout(ctx context.Context, cmd protocol.Command) error {
	s.logger.Info(ctx, "Logout request", "username", s.username, "claimed", cmd.Username)
	s.logout(ctx)
	return s.reply(protocol.ReplyOK)
}

func (s *session) handleDisconnect(ctx context.Context, cmd protocol.Command) error {
	s.logger.Info(ctx, "Disconnect request", "username", s.username, "claimed", cmd.Username)
	s.logout(ctx)
	s.closing = true
	return s.reply(protocol.ReplyOK)
}
