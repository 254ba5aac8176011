// Command kconfiglsp is the LSP Adapter's thin shell: a stdio
// JSON-RPC framer and CLI entrypoint wired to the Context Manager.
// Everything that matters — parsing, evaluation, resolution,
// diagnostics, menu navigation — lives in the internal packages this
// binary only wires together.
package main

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nrfconnect/kconfiglsp/internal/config"
	"github.com/nrfconnect/kconfiglsp/internal/context"
	"github.com/nrfconnect/kconfiglsp/internal/diagnose"
	"github.com/nrfconnect/kconfiglsp/internal/kconfig"
	"github.com/nrfconnect/kconfiglsp/internal/lsp"
)

func main() {
	app := &cli.App{
		Name:  "kconfiglsp",
		Usage: "Language Server for Kconfig declaration trees and .conf assignment stacks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Serve LSP requests over stdin/stdout (the only transport mode)",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Project root directory, used to locate .kconfiglsp.kdl",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Overrides the log-level set in .kconfiglsp.kdl",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a .kconfiglsp.kdl file, overriding --root's default lookup",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Pre-seed one build from an environment-dump side tool's JSON output",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// publisherAdapter defers to server.Publish once server exists,
// breaking the Manager<->Server construction cycle: the Manager needs
// a Publisher at construction time, but the Server needs the already
// -built Manager to register its handlers.
type publisherAdapter struct {
	server *lsp.Server
}

func (p *publisherAdapter) Publish(uri string, diags []diagnose.Diagnostic) {
	if p.server != nil {
		p.server.Publish(uri, diags)
	}
}

func run(c *cli.Context) error {
	logger := log.New(os.Stderr, "kconfiglsp: ", log.LstdFlags)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger.Printf("starting, log-level=%s watch=%v", cfg.LogLevel, cfg.Watch.Enabled)

	transport := newStdioTransport(os.Stdin, os.Stdout)
	docs := newMemDocStore()

	pub := &publisherAdapter{}
	mgr := context.NewManager(kconfig.OSOpener, pub, context.SearchConfig{
		FuzzyThreshold: cfg.Search.FuzzyThreshold,
		MaxResults:     cfg.Search.MaxResults,
	})
	server := lsp.NewServer(mgr, docs, transport)
	pub.server = server

	var watcher *context.Watcher
	if cfg.Watch.Enabled {
		w, werr := context.NewWatcher(mgr, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond)
		if werr != nil {
			logger.Printf("watcher disabled: %v", werr)
		} else {
			watcher = w
			watcher.Start(stdcontext.Background())
			go drainInvalidations(watcher, mgr, logger)
		}
	}
	if watcher != nil {
		defer watcher.Stop()
		server.OnBuild = func(_ int, root string) {
			if err := watcher.WatchRoot(root); err != nil {
				logger.Printf("watching %s failed: %v", root, err)
			}
		}
	}

	if envFile := c.String("env-file"); envFile != "" {
		root, env, err := readEnvDump(envFile)
		if err != nil {
			return err
		}
		id, err := mgr.AddBuild(root, nil, env)
		if err != nil {
			logger.Printf("addBuild from env-file failed: %v", err)
		} else {
			logger.Printf("pre-seeded context %d from %s", id, envFile)
			if server.OnBuild != nil {
				server.OnBuild(id, root)
			}
		}
	}

	return serve(transport, server, logger)
}

func drainInvalidations(w *context.Watcher, mgr *context.Manager, logger *log.Logger) {
	for ctxID := range w.Invalidated {
		if err := mgr.Reparse(ctxID); err != nil {
			logger.Printf("reparse of context %d failed: %v", ctxID, err)
		}
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(c.String("root"))
}

// serve runs the read-dispatch-respond loop until the transport's
// input stream closes: one worker, requests handled to completion
// (including diagnostics notifications they trigger) before the next
// frame is read.
func serve(transport *stdioTransport, server *lsp.Server, logger *log.Logger) error {
	for {
		raw, err := transport.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var req lsp.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			logger.Printf("malformed request: %v", err)
			continue
		}
		result, lerr := server.Dispatch(req)
		if len(req.ID) == 0 {
			continue // notification: no response expected
		}
		resp := lsp.Response{JSONRPC: "2.0", ID: req.ID, Result: result, Error: lerr}
		respRaw, err := json.Marshal(resp)
		if err != nil {
			logger.Printf("marshaling response: %v", err)
			continue
		}
		if err := transport.WriteMessage(respRaw); err != nil {
			return err
		}
	}
}
