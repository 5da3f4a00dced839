package tcp

import (
	"context"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
)

// login binds username to this session, releasing any user the session
// was logged in as before.
func (s *session) login(ctx context.Context, username string) {
	if s.username != "" && s.username != username {
		s.logout(ctx)
	}
	s.username = username

	if prev := s.srv.presence.Bind(username, s.id); prev != "" && prev != s.id {
		s.logger.Info(ctx, "login moved from another session", "username", username, "previous_session", prev)
	}
	s.logger.Info(ctx, "Logged in", "username", username)
}

// logout is shared by the logout and disconnect actions and by session
// teardown.
func (s *session) logout(ctx context.Context) {
	if s.username == "" {
		return
	}
	if s.srv.presence.Release(s.username, s.id) {
		s.logger.Info(ctx, "Logged out", "username", s.username)
	}
	s.username = ""
	clear(s.verified)
}

func (s *session) requireLogin() error {
	if s.username == "" {
		return common.ErrorUnauthorized
	}
	return nil
}

// requireGroup gates file actions on group. With strict group access the
// session must have verified or created the group itself.
func (s *session) requireGroup(group string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	if err := pathx.ValidateName(group); err != nil {
		return err
	}
	if !s.srv.opts.StrictGroupAccess {
		return nil
	}
	if _, ok := s.verified[group]; !ok {
		return common.ErrorForbidden
	}
	return nil
}

func (s *session) grant(group string) {
	s.verified[group] = struct{}{}
}
