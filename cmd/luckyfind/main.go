package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/five82/luckyfind/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (default ~/.config/luckyfind/config.toml)")
	prefsPath := flag.String("prefs", "", "override prefs path (default ~/.config/luckyfind/prefs.toml)")
	debugLog := flag.String("debug-log", "", "write debug log to this file")
	flag.Parse()

	if fd := os.Stdout.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		fmt.Fprintln(os.Stderr, "luckyfind: stdout is not a terminal")
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		DebugLog:   *debugLog,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "luckyfind: %v\n", err)
		return 1
	}
	return 0
}
