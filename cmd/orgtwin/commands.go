package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/emergent-company/orgtwin/internal/atp"
	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/ioexport"
	"github.com/emergent-company/orgtwin/internal/metrics"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/quality"
	"github.com/emergent-company/orgtwin/internal/rest"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/state"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

// buildOrg runs the full generator+weaver pipeline for one profile against
// the named engine backend (GraphConfig.Backend; "" selects "memory"),
// optionally reporting per-layer timing through metricsReg.
func buildOrg(profile scaling.OrgProfile, seed int64, backend string, metricsReg *metrics.Registry) (engine.Engine, error) {
	if backend == "" {
		backend = "memory"
	}
	eng, err := engine.NewBackend(backend)
	if err != nil {
		return nil, fmt.Errorf("selecting engine backend %q: %w", backend, err)
	}
	ctx := generator.NewContext(eng, profile, seed)
	orch := &generator.Orchestrator{}
	if metricsReg != nil {
		orch.OnLayer = func(layer generator.Layer, d time.Duration) {
			metricsReg.ObserveGenerationLayer(string(layer), d)
		}
	}
	if err := orch.Run(ctx); err != nil {
		return nil, fmt.Errorf("generating layers: %w", err)
	}
	if err := (&weaver.Weaver{}).WeaveAll(ctx); err != nil {
		return nil, fmt.Errorf("weaving relationships: %w", err)
	}
	return eng, nil
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "generate a small demo org and print statistics",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			profile := scaling.OrgProfile{Industry: scaling.Industry(cfg.Org.Industry), EmployeeCount: 150}
			eng, err := buildOrg(profile, cfg.Org.Seed, cfg.Graph.Backend, nil)
			if err != nil {
				return err
			}
			report := quality.Assess(eng)
			return printJSON(map[string]any{
				"statistics": eng.Statistics(),
				"quality":    report,
			})
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "run the full synthetic pipeline for a profile",
		Subcommands: []*cli.Command{
			{
				Name:  "org",
				Usage: "generate a synthetic organisation and write it to a canonical JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "industry"},
					&cli.IntFlag{Name: "employees"},
					&cli.Int64Flag{Name: "seed"},
					&cli.StringFlag{Name: "out", Required: true, Usage: "output canonical JSON path"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					industry := cfg.Org.Industry
					if v := c.String("industry"); v != "" {
						industry = v
					}
					employees := cfg.Org.EmployeeCount
					if v := c.Int("employees"); v > 0 {
						employees = v
					}
					seed := cfg.Org.Seed
					if c.IsSet("seed") {
						seed = c.Int64("seed")
					}
					profile := scaling.OrgProfile{Industry: scaling.Industry(industry), EmployeeCount: employees}
					eng, err := buildOrg(profile, seed, cfg.Graph.Backend, nil)
					if err != nil {
						return err
					}
					data, err := ioexport.Export(eng)
					if err != nil {
						return err
					}
					if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
						return fmt.Errorf("writing %s: %w", c.String("out"), err)
					}
					report := quality.Assess(eng)
					return printJSON(map[string]any{
						"statistics": eng.Statistics(),
						"quality":    report,
						"path":       c.String("out"),
					})
				},
			},
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "load a canonical graph file and print statistics",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("inspect requires a path argument")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			svc := state.New(cfg.Graph.Strict)
			svc.SetBackend(cfg.Graph.Backend)
			if err := svc.Load(path); err != nil {
				return err
			}
			eng, warning, err := svc.RequireGraph()
			if err != nil {
				if model.KindOf(err) == model.ErrNoGraphLoaded {
					return printJSON(map[string]any{})
				}
				return err
			}
			out := map[string]any{
				"statistics":        eng.Statistics(),
				"top_risk_entities": topRiskEntities(eng, 10),
			}
			if warning != "" {
				out["warning"] = warning
			}
			return printJSON(out)
		},
	}
}

// topRiskEntities ranks every entity by engine.Memory.RiskScore (spec.md
// §4.9's composite exposure score) and returns the topN highest, ties
// broken by id for determinism.
func topRiskEntities(eng engine.Engine, topN int) []map[string]any {
	entities := eng.ListEntities("", 0)
	type scored struct {
		entity *model.Entity
		score  float64
	}
	ranked := make([]scored, 0, len(entities))
	for _, e := range entities {
		score, err := eng.RiskScore(e.ID)
		if err != nil {
			continue
		}
		ranked = append(ranked, scored{entity: e, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entity.ID < ranked[j].entity.ID
	})
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	out := make([]map[string]any, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, map[string]any{
			"id":          r.entity.ID,
			"name":        r.entity.Name,
			"entity_type": r.entity.Type,
			"risk_score":  r.score,
		})
	}
	return out
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "ingest canonical JSON or a shard directory, re-emitting canonical JSON",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Required: true, Usage: "output canonical JSON path"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("import requires a path argument")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			eng, err := engine.NewBackend(cfg.Graph.Backend)
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				g, err := ioexport.Build(path)
				if err != nil {
					return fmt.Errorf("building graph from shards: %w", err)
				}
				data, err := json.Marshal(g)
				if err != nil {
					return fmt.Errorf("marshaling shard graph: %w", err)
				}
				if err := ioexport.Import(data, eng, ioexport.ImportOptions{Strict: cfg.Graph.Strict}); err != nil {
					return err
				}
			} else {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				if err := ioexport.Import(data, eng, ioexport.ImportOptions{Strict: cfg.Graph.Strict}); err != nil {
					return err
				}
			}
			data, err := ioexport.Export(eng)
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", c.String("out"), err)
			}
			return printJSON(map[string]any{"statistics": eng.Statistics(), "path": c.String("out")})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "re-serialise a loaded graph, optionally as a shard directory or GraphML",
		ArgsUsage: "<in-path> <out-path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "shard-dir", Usage: "write out-path as a shard directory instead of a single file"},
			&cli.BoolFlag{Name: "graphml", Usage: "write out-path as GraphML instead of canonical JSON"},
		},
		Action: func(c *cli.Context) error {
			inPath, outPath := c.Args().Get(0), c.Args().Get(1)
			if inPath == "" || outPath == "" {
				return fmt.Errorf("export requires <in-path> <out-path>")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", inPath, err)
			}
			eng, err := engine.NewBackend(cfg.Graph.Backend)
			if err != nil {
				return err
			}
			if err := ioexport.Import(data, eng, ioexport.ImportOptions{Strict: cfg.Graph.Strict}); err != nil {
				return err
			}

			canonical, err := ioexport.Export(eng)
			if err != nil {
				return err
			}

			switch {
			case c.Bool("shard-dir"):
				var g ioexport.Graph
				if err := json.Unmarshal(canonical, &g); err != nil {
					return fmt.Errorf("decoding canonical graph: %w", err)
				}
				if err := ioexport.Split(g, outPath); err != nil {
					return err
				}
			case c.Bool("graphml"):
				var g ioexport.Graph
				if err := json.Unmarshal(canonical, &g); err != nil {
					return fmt.Errorf("decoding canonical graph: %w", err)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				if err := ioexport.WriteGraphML(g, f); err != nil {
					return err
				}
			default:
				if err := os.WriteFile(outPath, canonical, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
			}
			return printJSON(map[string]any{"statistics": eng.Statistics(), "path": outPath})
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the tool dispatcher over stdio (ATP) or HTTP (REST)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "atp", Usage: "serve the line-delimited ATP protocol over stdio"},
			&cli.BoolFlag{Name: "rest", Usage: "serve the REST surface over HTTP"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			svc := state.New(cfg.Graph.Strict)
			svc.SetBackend(cfg.Graph.Backend)
			if err := svc.AutoLoadDefault(cfg.Graph); err != nil {
				return fmt.Errorf("auto-loading default graph: %w", err)
			}

			mode := cfg.Transport.Mode
			if c.Bool("rest") {
				mode = "rest"
			} else if c.Bool("atp") {
				mode = "atp"
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			switch mode {
			case "rest":
				metricsReg := metrics.New()
				d := atp.New(svc, metricsReg)
				srv := rest.NewServer(d, metricsReg, logger, rest.Config{
					CORSOrigins: splitCommaList(cfg.Transport.CORSOrigins),
				})
				addr := cfg.Transport.Host + ":" + cfg.Transport.Port
				logger.Info("orgtwin rest server starting", "addr", addr)
				return serveHTTP(ctx, addr, srv.Router, logger)
			default:
				// ATP mode records metrics internally but exposes no HTTP
				// listener to scrape them from (SPEC_FULL.md §4.11).
				d := atp.New(svc, metrics.New())
				return atp.NewServer(d, logger).Run(ctx)
			}
		},
	}
}

func benchmarkCommand() *cli.Command {
	return &cli.Command{
		Name:  "benchmark",
		Usage: "drive the pipeline at several employee-count scales",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			scales := []int{100, 1000, 5000, 20000}
			results := make([]map[string]any, 0, len(scales))
			for _, n := range scales {
				profile := scaling.OrgProfile{Industry: scaling.Industry(cfg.Org.Industry), EmployeeCount: n}
				elapsedFn := metrics.Timer()
				eng, err := buildOrg(profile, cfg.Org.Seed, cfg.Graph.Backend, nil)
				if err != nil {
					return fmt.Errorf("benchmarking %d employees: %w", n, err)
				}
				elapsed := elapsedFn()
				stats := eng.Statistics()
				results = append(results, map[string]any{
					"employee_count":     n,
					"entity_count":       stats.EntityCount,
					"relationship_count": stats.RelationshipCount,
					"elapsed_ms":         elapsed.Milliseconds(),
				})
			}
			return printJSON(map[string]any{"runs": results})
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
