// greycheck is a one-shot greylisting checker in the qmail-spp plugin
// convention: the triplet arrives in the environment, the verdict leaves
// on stdout. An empty line lets the message proceed; an E451 line defers
// it. The exit status is always 0, a broken checker must never break the
// calling pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/peterbokunet/greyd/allowlist"
	"github.com/peterbokunet/greyd/config"
	"github.com/peterbokunet/greyd/greylist"
	"github.com/peterbokunet/greyd/log"
)

type appConfig struct {
	StoreDir   string          `yaml:"store_dir" env:"GREY_STORE_DIR"`
	Reply      string          `yaml:"reply" env:"GREY_REPLY" env-default:"E451 greylisting in effect, please come back later"`
	AllowHosts []string        `yaml:"allow_hosts" env:"GREY_ALLOW_HOSTS"`
	Greylist   greylist.Policy `yaml:"greylist"`
}

func main() {
	// Relay and authenticated clients bypass the engine entirely.
	if envDefined("RELAYCLIENT") || envDefined("TRUSTCLIENT") {
		fmt.Println()
		return
	}

	cfg := &appConfig{}
	if err := config.LoadConfig(cfg); err != nil {
		log.Errorf("greycheck: config: %v", err)
		// Fall through with whatever defaults survived, fail-open below.
	}
	logger := log.NewLogger()
	cfg.Greylist = cfg.Greylist.Normalize(logger)
	if cfg.Greylist.Mode == greylist.ModeDisabled {
		fmt.Println()
		return
	}

	trip := tripletFromEnv()
	if allowlist.Match(cfg.AllowHosts, trip.RemoteAddr) {
		log.Debugf("greycheck: %s allow-listed", trip.RemoteAddr)
		fmt.Println()
		return
	}

	engine := greylist.NewEngine(cfg.StoreDir, logger)
	v := engine.Evaluate(trip, cfg.Greylist)
	if v.Action == greylist.SoftDeny {
		log.Infof("greycheck: deferring %s: %s", trip.RemoteAddr, v.Reason)
		if cfg.Reply == "" {
			cfg.Reply = "E451 " + v.Reason
		}
		fmt.Println(cfg.Reply)
		return
	}
	fmt.Println()
}

// tripletFromEnv reads the qmail-spp connection variables. Depending on
// IPv4/IPv6/TLS the client address can be in different places.
func tripletFromEnv() greylist.Triplet {
	var t greylist.Triplet
	for _, name := range []string{"TCPREMOTEIP", "TCP6REMOTEIP", "SSLREMOTEIP"} {
		if v, ok := os.LookupEnv(name); ok {
			t.RemoteAddr = v
		}
	}
	t.Sender = os.Getenv("SMTPMAILFROM")
	t.Recipient = os.Getenv("SMTPRCPTTO")
	return t
}

func envDefined(key string) bool {
	_, exists := os.LookupEnv(key)
	return exists
}
