package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/config"
	"github.com/OnisOris/devopsys/internal/orchestrator"
	"github.com/OnisOris/devopsys/internal/router"
	"github.com/OnisOris/devopsys/internal/store"
	"github.com/OnisOris/devopsys/internal/trace"
	"github.com/OnisOris/devopsys/internal/verify"
	"github.com/OnisOris/devopsys/internal/workspace"
)

const version = "0.4.0"

var (
	// Global flags
	verbose          bool
	configPath       string
	backendName      string
	modelName        string
	plannerModelName string
	capabilityModels []string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "devopsys",
	Short: "devopsys - multi-agent DevOps task orchestrator",
	Long: `devopsys turns a free-text DevOps request into verified artifacts.

A planner model breaks the request into capability steps (python, bash,
docker, rust, linux, universal, project_architect); generated code is
statically checked, executed in a sandbox and refined until a verifier
accepts it or the attempt budget runs out.

Run 'devopsys ask "<task>"' to execute a request end to end.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	askCapability  string
	askOSName      string
	askOutPath     string
	askProjectDir  string
	askShowContext bool
)

// askCmd executes one task through the full pipeline
var askCmd = &cobra.Command{
	Use:   "ask [task]",
	Short: "Execute a task through the plan/generate/verify pipeline",
	Long: `Plans the task, dispatches each step to its capability, verifies the
generated artifacts and prints the final result.

Examples:
  devopsys ask "write a python script that prints GPU usage"
  devopsys ask --capability bash "rotate logs under /var/log/myapp"
  devopsys ask --os ubuntu "install docker" `,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// routeCmd shows the keyword router decision without executing anything
var routeCmd = &cobra.Command{
	Use:   "route [task]",
	Short: "Show which capability the keyword router would pick",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := router.Classify(strings.Join(args, " "))
		fmt.Printf("capability: %s\nscore: %d\nreason: %s\n", route.Capability, route.Score, route.Reason)
		return nil
	},
}

// snapshotCmd prints the advisory workspace snapshot
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [dir]",
	Short: "Print the workspace snapshot passed to the planner",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		fmt.Println(workspace.Snapshot(root))
		return nil
	},
}

var historyLimit int

// historyCmd lists recent runs from the local history database
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent orchestration runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := store.NewStore(filepath.Dir(cfg.Project.HistoryDB))
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.RecentRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded yet")
			return nil
		}
		for _, run := range runs {
			file := run.FinalFilename
			if file == "" {
				file = "-"
			}
			fmt.Printf("%s  %s  steps=%d  %s  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"), run.ID, run.StepCount, file, summarizeTask(run.Task))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the devopsys version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("devopsys " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "generation backend (dummy|ollama|openai|deepseek|gemini)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "default model name for the selected backend")
	rootCmd.PersistentFlags().StringVar(&plannerModelName, "planner-model", "", "model override for planning and verification")
	rootCmd.PersistentFlags().StringArrayVar(&capabilityModels, "capability-model", nil, "per-capability model override, e.g. python=llama3 (repeatable)")

	askCmd.Flags().StringVar(&askCapability, "capability", "", "skip planning and force a single capability")
	askCmd.Flags().StringVar(&askOSName, "os", "", "target distro for the linux capability")
	askCmd.Flags().StringVarP(&askOutPath, "out", "o", "", "write the final artifact to this file")
	askCmd.Flags().StringVar(&askProjectDir, "project-dir", "", "base directory for project scaffolding")
	askCmd.Flags().BoolVar(&askShowContext, "trace", false, "print the workspace snapshot before planning")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of runs to list")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	task := strings.TrimSpace(strings.Join(args, " "))
	if task == "" {
		return fmt.Errorf("task must not be empty")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backendName == "" {
		backendName = cfg.Backend
	}
	if askProjectDir == "" {
		askProjectDir = cfg.Project.BaseDir
	}

	defaultFactory, err := backend.NewFactory(cfg, backendName, modelName)
	if err != nil {
		return err
	}
	var plannerFactory backend.Factory
	if plannerModelName != "" {
		plannerFactory, err = backend.NewFactory(cfg, backendName, plannerModelName)
		if err != nil {
			return err
		}
	}
	capabilityFactories, err := parseCapabilityModels(cfg, capabilityModels)
	if err != nil {
		return err
	}

	sandbox := verify.NewSandbox()
	sandbox.ScriptTimeout = cfg.ScriptTimeout()
	sandbox.RuntimeTimeout = cfg.RuntimeTimeout()
	if cfg.Verify.CaptureLimit > 0 {
		sandbox.CaptureLimit = cfg.Verify.CaptureLimit
	}
	registry := agent.NewRegistry(verify.NewEngine(sandbox, logger))

	observer := trace.NewConsoleObserver(os.Stdout)
	observer.ShowWorkspaceSnapshot(askShowContext)

	o := orchestrator.New(orchestrator.Config{
		Registry:            registry,
		DefaultFactory:      defaultFactory,
		PlannerFactory:      plannerFactory,
		CapabilityFactories: capabilityFactories,
		Observer:            observer,
		Logger:              logger,
	})

	res, err := o.Execute(cmd.Context(), task, orchestrator.Options{
		ForcedCapability: askCapability,
		OSName:           askOSName,
		ProjectBase:      askProjectDir,
	})
	if err != nil {
		return err
	}

	recordRun(cfg, task, res)

	if askOutPath != "" {
		if err := os.WriteFile(askOutPath, []byte(res.Final.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", askOutPath, err)
		}
		fmt.Println("saved to " + askOutPath)
		return nil
	}
	fmt.Println(res.Final.Text)
	return nil
}

// recordRun persists the run for `devopsys history`. History is best effort;
// a broken database never fails the run that produced a result.
func recordRun(cfg *config.Config, task string, res *orchestrator.Result) {
	st, err := store.NewStore(filepath.Dir(cfg.Project.HistoryDB))
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	defer st.Close()

	run := &store.Run{
		ID:            res.RunID,
		Task:          task,
		FinalFilename: res.Final.Filename,
		FinalText:     res.Final.Text,
	}
	for _, step := range res.Steps {
		run.Steps = append(run.Steps, store.StepRecord{
			Capability:  step.Step.Capability,
			Instruction: step.Step.Instruction,
			Reason:      step.Step.Reason,
			Filename:    step.Result.Filename,
			Output:      step.Result.Text,
		})
	}
	if err := st.RecordRun(run); err != nil {
		logger.Warn("failed to record run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

// parseCapabilityModels expands repeated name=model flags into per-capability
// factories on the selected backend.
func parseCapabilityModels(cfg *config.Config, specs []string) (map[string]backend.Factory, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]backend.Factory, len(specs))
	for _, spec := range specs {
		name, model, found := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		model = strings.TrimSpace(model)
		if !found || name == "" || model == "" {
			return nil, fmt.Errorf("invalid --capability-model %q, expected name=model", spec)
		}
		factory, err := backend.NewFactory(cfg, backendName, model)
		if err != nil {
			return nil, err
		}
		out[name] = factory
	}
	return out, nil
}

func defaultConfigPath() string {
	if v := os.Getenv("DEVOPSYS_CONFIG"); v != "" {
		return v
	}
	return "devopsys.yaml"
}

func summarizeTask(task string) string {
	task = strings.Join(strings.Fields(task), " ")
	if len(task) > 60 {
		return task[:60] + "…"
	}
	return task
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
