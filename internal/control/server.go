// Package control exposes the engine's operator control socket: a small
// newline-command protocol over a Unix domain socket for engaging or
// releasing the kill switch without restarting the process. The accept
// loop follows the same shape as the teacher's cmd/ingest market-data
// socket (pkg/uds.Server, one goroutine per connection).
package control

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/yanun0323/logs"

	"main/pkg/uds"
)

// KillSwitch is the subset of risk.KillSwitchControl the socket drives.
type KillSwitch interface {
	Engage()
	Disengage()
	Engaged() bool
}

// Server accepts KILL / RESUME / STATUS commands, one per line, and
// replies with a single line of text.
type Server struct {
	uds        *uds.Server
	killSwitch KillSwitch
	wg         sync.WaitGroup
}

// New binds a control server to the given socket path without listening
// yet; call Serve to start accepting connections.
func New(socketPath string, killSwitch KillSwitch) (*Server, error) {
	srv, err := uds.NewServer(socketPath)
	if err != nil {
		return nil, err
	}
	return &Server{uds: srv, killSwitch: killSwitch}, nil
}

// Serve listens and accepts connections until ctx is canceled or Close
// is called. It blocks; callers typically run it in its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.uds.Listen(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = s.uds.Close()
	}()

	for {
		conn, err := s.uds.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			logs.Warnf("control: accept error, err: %+v", err)
			continue
		}
		s.wg.Add(1)
		go func(c *net.UnixConn) {
			defer s.wg.Done()
			s.handle(c)
		}(conn)
	}
}

// Close stops the listener and waits for in-flight connections to drain.
func (s *Server) Close() error {
	err := s.uds.Close()
	s.wg.Wait()
	return err
}

func (s *Server) handle(conn *net.UnixConn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		switch line {
		case "":
			continue
		case "KILL":
			s.killSwitch.Engage()
			s.reply(conn, "OK engaged")
		case "RESUME":
			s.killSwitch.Disengage()
			s.reply(conn, "OK disengaged")
		case "STATUS":
			if s.killSwitch.Engaged() {
				s.reply(conn, "engaged")
			} else {
				s.reply(conn, "disengaged")
			}
		default:
			s.reply(conn, "ERR unknown command")
		}
	}
}

func (s *Server) reply(conn *net.UnixConn, msg string) {
	_, _ = conn.Write([]byte(msg + "\n"))
}
