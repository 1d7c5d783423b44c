// Command crucible is the outer shell spec.md §6 calls "external
// collaborator": a cobra-driven REPL over an internal/engine.Environment,
// with internal/loader decoding declarative YAML rulesets (§6's "LHS
// parse tree... is external, but the core consumes" — loader hands the
// core the IR it already expects, rather than building a surface-language
// lexer).
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crucible/internal/beta"
	"crucible/internal/config"
	"crucible/internal/engine"
	"crucible/internal/loader"
	"crucible/internal/logging"
)

var (
	flagConfig   string
	flagRules    string
	flagWatchDir string
	flagDebug    bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crucible",
		Short: "crucible is a forward-chaining production rule engine REPL",
		RunE:  runRoot,
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML engine config file")
	cmd.PersistentFlags().StringVar(&flagRules, "rules", "", "path to a YAML ruleset file to load at startup")
	cmd.PersistentFlags().StringVar(&flagWatchDir, "watch-dir", "", "directory to watch for ruleset changes")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug-level logging")
	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(flagDebug); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Sync()

	cfg := config.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.LoadFile(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	env := engine.New(cfg)
	sess := &session{env: env, out: os.Stdout}
	env.AddAfterRuleCallback(func(rule *engine.Rule, _ *beta.PartialMatch) {
		fmt.Fprintln(sess.out, renderFired(rule.Name))
	})

	if flagRules != "" {
		if err := sess.loadRuleset(flagRules); err != nil {
			return err
		}
	}

	if flagWatchDir != "" {
		rw, err := watchRulesetDir(flagWatchDir, sess.loadRuleset)
		if err != nil {
			return fmt.Errorf("starting ruleset watcher: %w", err)
		}
		defer rw.Close()
	}

	logging.Boot("crucible ready, module %s focused", "MAIN")
	sess.repl(bufio.NewScanner(os.Stdin))
	return nil
}

// loadRuleset reads and installs a ruleset file onto the session's
// Environment, reporting load errors rather than panicking so a bad edit
// picked up by the watcher doesn't take down a live session.
func (s *session) loadRuleset(path string) error {
	rs, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	if err := loader.Install(s.env, rs); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "loaded %d template(s), %d rule(s) from %s\n", len(rs.Templates), len(rs.Rules), path)
	return nil
}
