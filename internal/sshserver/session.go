// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/google/uuid"

	"github.com/watchbind/watchbind/internal/tui"
)

// teaHandler builds the interface for one session and starts its capture
// loop. The loop is bound to the session context, so it stops when the
// client disconnects or quits.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	id := uuid.NewString()
	logger := s.logger.With("session", id[:8], "user", sess.User(), "remote", sess.RemoteAddr().String())

	coord, opts, err := s.cfg.NewSession(id, logger)
	if err != nil {
		logger.Error("session setup failed", "err", err)
		wish.Errorln(sess, "watchbind: "+err.Error())
		return nil, nil
	}

	ctx := sess.Context()
	s.sessions.Add(1)
	go func() {
		defer s.sessions.Add(-1)
		logger.Info("session started")
		if err := coord.Run(ctx); err != nil {
			logger.Error("capture loop stopped", "err", err)
		}
		logger.Info("session ended")
	}()

	opts.Controller = coord
	opts.Context = ctx
	return tui.New(opts), []tea.ProgramOption{tea.WithAltScreen()}
}
