package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"squad/internal/agent"
	"squad/internal/display"
	"squad/internal/engine"
	"squad/internal/listener"
	"squad/internal/llm_client"
	"squad/internal/logger"
	"squad/internal/memory"
	"squad/internal/metrics"
	"squad/internal/roster"
	"squad/internal/sandbox"
	"squad/internal/selector"
	"squad/internal/supervisor"
)

var (
	flagRoster       string
	flagTask         string
	flagTaskFile     string
	flagDocs         string
	flagBackend      string
	flagModel        string
	flagOllamaHost   string
	flagWorkDir      string
	flagMaxTurns     int
	flagMaxResets    int
	flagMaxRetryWait time.Duration
	flagExecTimeout  time.Duration
	flagLLMArbiter   bool
	flagYes          bool
)

// Exit status mirrors the terminal outcome: 0 terminated, 2 turn cap, 1 abort.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "squad",
	Short: "Runs a role-based team conversation to accomplish a task",
	Long: `squad coordinates a planner, producers, a reviewer and an executor through
a shared, strictly ordered conversation, and supervises the run across
upstream failures (rate limits, context overflows).`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagRoster, "roster", "roster.yaml", "roster config file")
	rootCmd.Flags().StringVar(&flagTask, "task", "", "task to accomplish")
	rootCmd.Flags().StringVar(&flagTaskFile, "task-file", "", "file containing the task")
	rootCmd.Flags().StringVar(&flagDocs, "docs", "", "directory of documents for planner context")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "gemini", "LLM backend (gemini or ollama)")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "model override")
	rootCmd.Flags().StringVar(&flagOllamaHost, "ollama-host", "", "ollama host override")
	rootCmd.Flags().StringVar(&flagWorkDir, "workdir", "squad_workspace", "base directory for execution sandboxes")
	rootCmd.Flags().IntVar(&flagMaxTurns, "max-turns", engine.DefaultMaxTurns, "turn cap per cycle")
	rootCmd.Flags().IntVar(&flagMaxResets, "max-resets", supervisor.DefaultMaxResets, "context-overflow reset budget")
	rootCmd.Flags().DurationVar(&flagMaxRetryWait, "max-retry-wait", supervisor.DefaultMaxRetryWait, "abort threshold for rate-limit waits")
	rootCmd.Flags().DurationVar(&flagExecTimeout, "exec-timeout", sandbox.DefaultTimeout, "per-block execution timeout")
	rootCmd.Flags().BoolVar(&flagLLMArbiter, "llm-arbiter", false, "use the LLM to break speaker ties")
	rootCmd.Flags().BoolVar(&flagYes, "yes", false, "skip the execution approval gate")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	task, err := resolveTask(args)
	if err != nil {
		return err
	}

	if err := llm_client.Init(llm_client.Config{
		Backend:    flagBackend,
		Model:      flagModel,
		OllamaHost: flagOllamaHost,
	}); err != nil {
		return fmt.Errorf("could not initialize LLM client: %w", err)
	}

	ros, err := roster.Load(flagRoster)
	if err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}

	if err := listener.Init(); err != nil {
		return fmt.Errorf("could not init terminal: %w", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		listener.AsyncPrintln("Interrupted; aborting run.")
		cancel()
	}()

	store := memory.NewStore()
	if flagDocs != "" {
		sources, err := memory.CollectSources(flagDocs)
		if err != nil {
			return err
		}
		n, err := memory.NewIndexer(store).Index(ctx, sources)
		if err != nil {
			return fmt.Errorf("could not index docs: %w", err)
		}
		listener.AsyncPrintln(fmt.Sprintf("Indexed %d chunks from %d documents.", n, len(sources)))
	}

	usage := &metrics.UsageTracker{}

	var arb selector.Arbiter = selector.RoundRobin{}
	if flagLLMArbiter {
		arb = &selector.LLMArbiter{Model: flagModel, Usage: usage}
	}

	var approve sandbox.ApproveFunc
	if !flagYes {
		approve = func(code string) bool {
			listener.AsyncPrintln("The executor wants to run:\n" + code)
			return listener.AskYesNo("Approve execution?")
		}
	}

	// Every attempt gets fresh agents and a fresh sandbox; nothing carries
	// over across supervisor restarts.
	factory := func(cycle int) (*engine.Engine, func(), error) {
		box, err := sandbox.New(flagWorkDir, flagExecTimeout, approve)
		if err != nil {
			return nil, nil, err
		}
		agents := make([]agent.Agent, 0, len(ros.Roles))
		for _, role := range ros.Roles {
			switch role.Tag {
			case roster.TagExecutor:
				agents = append(agents, agent.NewExecutor(role.ID, box))
			case roster.TagPlanner:
				agents = append(agents, agent.NewAssistant(role, flagModel, usage, store))
			default:
				agents = append(agents, agent.NewAssistant(role, flagModel, usage, nil))
			}
		}
		eng, err := engine.New(ros, agents, arb, cycle, engine.Config{
			MaxTurns: flagMaxTurns,
			Sentinel: ros.Sentinel(),
		})
		if err != nil {
			_ = box.Close()
			return nil, nil, err
		}
		return eng, func() { _ = box.Close() }, nil
	}

	sup := supervisor.New(factory, usage, flagMaxResets, flagMaxRetryWait, listener.AsyncPrintln)
	listener.AsyncPrintln(fmt.Sprintf("Starting run %s (%d roles, backend %s).",
		sup.RunID(), len(ros.Roles), llm_client.ActiveBackend()))

	outcome, runErr := sup.Run(ctx, task)

	if eng := sup.LastEngine(); eng != nil {
		fmt.Println(display.FormatTranscript(eng.Messages()))
	}
	fmt.Println(display.FormatCycleMetrics(sup.CycleMetrics()))
	fmt.Println(display.FormatUsage(usage))

	if runErr != nil {
		var abort *supervisor.AbortError
		if errors.As(runErr, &abort) {
			logger.Printf("[CLI] aborted: %v", abort)
			fmt.Printf("Run aborted: %s\n", abort.Reason)
		}
		exitCode = 1
		return nil
	}
	switch outcome {
	case engine.OutcomeTurnCapExhausted:
		fmt.Println("Run stopped: turn cap exhausted.")
		exitCode = 2
	default:
		fmt.Println("Run terminated successfully.")
		exitCode = 0
	}
	return nil
}

func resolveTask(args []string) (string, error) {
	if flagTaskFile != "" {
		b, err := os.ReadFile(flagTaskFile)
		if err != nil {
			return "", fmt.Errorf("could not read task file: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	task := strings.TrimSpace(flagTask)
	if task == "" && len(args) > 0 {
		task = strings.TrimSpace(strings.Join(args, " "))
	}
	if task == "" {
		return "", fmt.Errorf("no task given: use --task, --task-file or a positional argument")
	}
	return task, nil
}
