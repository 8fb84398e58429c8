package main

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/peterbokunet/greyd/allowlist"
	"github.com/peterbokunet/greyd/greylist"
	"github.com/peterbokunet/greyd/log"
	"github.com/peterbokunet/greyd/utils"
)

const connTimeout = 30 * time.Second

type server struct {
	cfg    *appConfig
	engine *greylist.Engine
}

func (s *server) listen() (net.Listener, error) {
	// A stale socket from an unclean shutdown blocks the bind.
	if _, err := os.Stat(s.cfg.Socket); err == nil {
		os.Remove(s.cfg.Socket)
	}
	return net.Listen("unix", s.cfg.Socket)
}

func (s *server) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				log.Errorf("greylistd: accept error: %v", err)
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handle(conn)
	}
}

func (s *server) handle(conn net.Conn) {
	defer utils.DeferCloseLog(conn)
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	r := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	for r.Scan() {
		reply := s.answer(r.Text())
		if _, err := w.WriteString(reply + "\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
	if err := r.Err(); err != nil && err != io.EOF {
		log.Debugf("greylistd: read: %v", err)
	}
}

// answer handles one protocol line.
func (s *server) answer(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 4 {
		return "err usage: check <addr> [<sender> [<rcpt>]]"
	}
	if fields[0] != "check" {
		return "err unknown command " + fields[0]
	}

	trip := greylist.Triplet{RemoteAddr: fields[1]}
	if len(fields) > 2 {
		trip.Sender = fields[2]
	}
	if len(fields) > 3 {
		trip.Recipient = fields[3]
	}

	if allowlist.Match(s.cfg.AllowHosts, trip.RemoteAddr) {
		return "allow"
	}

	v := s.engine.Evaluate(trip, s.cfg.Greylist)
	if v.Action == greylist.SoftDeny {
		return "defer " + v.Reason
	}
	return "allow"
}
