// greylistd answers greylisting queries over a unix socket. One line per
// query:
//
//	check <addr> [<sender> [<rcpt>]]
//
// answered with "allow" or "defer <reason>". Mail servers and milters
// keep the protocol glue; all policy lives here.
package main

import (
	"os"
	"syscall"

	"github.com/peterbokunet/greyd/closer"
	"github.com/peterbokunet/greyd/config"
	"github.com/peterbokunet/greyd/greylist"
	"github.com/peterbokunet/greyd/log"
)

type appConfig struct {
	Socket     string          `yaml:"socket" env:"GREYLISTD_SOCKET" env-default:"/var/run/greylistd.sock"`
	StoreDir   string          `yaml:"store_dir" env:"GREY_STORE_DIR"`
	AllowHosts []string        `yaml:"allow_hosts" env:"GREY_ALLOW_HOSTS"`
	Greylist   greylist.Policy `yaml:"greylist"`
}

func main() {
	cfg := &appConfig{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Fatalf("greylistd: config: %v", err)
	}

	srv := &server{
		cfg:    cfg,
		engine: greylist.NewEngine(cfg.StoreDir, log.NewLogger()),
	}

	ln, err := srv.listen()
	if err != nil {
		log.Fatalf("greylistd: %v", err)
	}

	c := closer.New(syscall.SIGINT, syscall.SIGTERM)
	c.Add(func() error {
		err := ln.Close()
		os.Remove(cfg.Socket)
		return err
	})

	log.Infof("greylistd: listening on %s", cfg.Socket)
	if err := srv.serve(ln); err != nil {
		log.Errorf("greylistd: %v", err)
	}
	c.CloseAll()
	c.Wait()
}
