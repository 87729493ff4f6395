// cmd/preflight validates a config file without starting the monitor, for
// container build pipelines.
package main

import (
	"fmt"
	"os"

	"availwatch/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.yaml>\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}

	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	ok(fmt.Sprintf("%d target(s) configured", len(cfg.Targets)))

	if len(cfg.Sinks) == 0 {
		warn("no sinks configured — alerts will only appear in logs")
	} else {
		ok(fmt.Sprintf("%d sink(s) configured", len(cfg.Sinks)))
	}

	if cfg.StateDB == "" {
		warn("state_db empty — alert state will not survive restarts")
	} else {
		ok("state_db=" + cfg.StateDB)
	}

	if cfg.API.Addr == "" {
		warn("api.addr empty — status API disabled")
	} else {
		ok("api.addr=" + cfg.API.Addr)
	}

	ok("preflight passed")
}
