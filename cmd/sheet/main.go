// Package main prints a character's derived values.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-sheet/internal/app"
	"github.com/cory-johannsen/pf2e-sheet/internal/config"
	"github.com/cory-johannsen/pf2e-sheet/internal/game/character"
	"github.com/cory-johannsen/pf2e-sheet/internal/observability"
)

const defaultModifiers = "STR,DEX,CON,INT,WIS,CHA,Max HP,AC,FORT,REF,WILL,Perception"

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and SHEET_* environment")
	charPath := flag.String("character", "", "path to a character YAML file")
	modifiers := flag.String("modifiers", defaultModifiers, "comma-separated modifiers to print")
	target := flag.String("target", "", "optional target the modifiers apply to")
	flag.Parse()

	if *charPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sheet -character <file> [-config <file>] [-modifiers a,b,c] [-target t]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "sheet")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	scripts, err := app.ProvideScripts(cfg, logger)
	if err != nil {
		logger.Fatal("initializing scripts", zap.Error(err))
	}
	reg, cleanup, err := app.ProvideRegistry(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("loading resources", zap.Error(err))
	}
	defer cleanup()

	c, err := character.LoadFile(*charPath)
	if err != nil {
		logger.Fatal("loading character", zap.Error(err))
	}
	resolver := character.NewResolver(reg, scripts, logger)
	if _, err := resolver.NormalizeResources(c); err != nil {
		logger.Fatal("normalizing character", zap.String("character", c.Name), zap.Error(err))
	}

	fmt.Printf("%s (%s)\n\n", c.Name, c.Player)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range strings.Split(*modifiers, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m, err := resolver.Modifier(c, name, *target)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", name, m.Total(), m)
	}
	_ = w.Flush()

	unenforced := resolver.Unenforced(c)
	if len(unenforced) == 0 {
		return
	}
	fmt.Println("\nCheck by hand:")
	for _, u := range unenforced {
		fmt.Printf("  %s (%s): %s\n", u.Resource, u.Field, u.Text)
	}
}
