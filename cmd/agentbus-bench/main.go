// agentbus-bench drives a fan-out workload through the bus and reports
// throughput. It doubles as a smoke test for the metrics and health endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentbus-dev/agentbus"
	tracing "github.com/agentbus-dev/agentbus/internal/observability"
	"github.com/agentbus-dev/agentbus/pkg/config"
	"github.com/agentbus-dev/agentbus/pkg/observability"
)

var (
	numAgents   int
	numMessages int
	capacity    int
	metricsPort int
	configPath  string
)

var rootCmd = &cobra.Command{
	Use:   "agentbus-bench",
	Short: "Benchmark the agentbus in-process message bus",
	Long: `agentbus-bench registers a set of echo agents, publishes a stream of
messages across them, waits for the bus to drain, and reports throughput.`,
	RunE: runBench,
}

func init() {
	rootCmd.Version = agentbus.Version
	rootCmd.Flags().IntVar(&numAgents, "agents", 8, "number of agent instances to fan out across")
	rootCmd.Flags().IntVar(&numMessages, "messages", 10000, "number of messages to publish")
	rootCmd.Flags().IntVar(&capacity, "capacity", 0, "mailbox capacity (0 = unbounded)")
	rootCmd.Flags().IntVar(&metricsPort, "metrics-port", 8080, "port for the metrics and health endpoints")
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var bus agentbus.Runtime
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Tracing.Enabled {
			if err := tracing.Init(tracing.Config{
				ServiceName:  cfg.Tracing.ServiceName,
				Enabled:      true,
				ExporterType: cfg.Tracing.Exporter,
				OTLPEndpoint: cfg.Tracing.Endpoint,
			}); err != nil {
				return err
			}
			defer func() {
				if err := tracing.Shutdown(context.Background()); err != nil {
					log.Printf("[Bench] tracing shutdown: %v", err)
				}
			}()
		}
		bus, err = agentbus.NewFromConfig(cfg)
		if err != nil {
			return err
		}
	} else {
		bus = agentbus.New(agentbus.WithMailboxCapacity(capacity))
	}

	observability.InitMetrics()
	checker := observability.InitHealthChecker()
	checker.RegisterCheck(observability.PingCheck())
	checker.RegisterCheck(observability.RuntimeCheck(func() string {
		return string(bus.State())
	}))

	server := observability.NewServer(metricsPort, checker)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Bench] observability server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	_, err := bus.Register("Echo", func(id agentbus.AgentID) (agentbus.Agent, error) {
		return agentbus.HandlerFunc(func(ctx *agentbus.MessageContext, msg *agentbus.Message) (*agentbus.Message, error) {
			return nil, nil
		}), nil
	}, agentbus.DefaultSubscription())
	if err != nil {
		return err
	}

	if err := bus.Start(ctx); err != nil {
		return err
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if counter, ok := bus.(interface{ Unfinished() int }); ok {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					observability.SetUnfinishedItems(counter.Unfinished())
				case <-pollCtx.Done():
					return
				}
			}
		}()
	}

	log.Printf("[Bench] publishing %d messages across %d instances", numMessages, numAgents)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numAgents; i++ {
		topic := agentbus.NewTopicID("Echo", fmt.Sprintf("instance-%d", i))
		share := numMessages / numAgents
		if i < numMessages%numAgents {
			share++
		}
		g.Go(func() error {
			for j := 0; j < share; j++ {
				msg := agentbus.NewMessage("bench.tick", j)
				if err := bus.Publish(gctx, msg, topic); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := bus.StopWhenIdle(ctx); err != nil {
		return err
	}

	elapsed := time.Since(start)
	log.Printf("[Bench] done: %d messages in %s (%.0f msg/s)",
		numMessages, elapsed.Round(time.Millisecond), float64(numMessages)/elapsed.Seconds())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
