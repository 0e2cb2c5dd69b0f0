// Command relay runs a task through a tool-calling agent loop backed by the
// OpenAI Responses API.
//
// Usage:
//
//	OPENAI_API_KEY=sk-... relay -task "list the go files" [flags]
//
// Flags:
//
//	-task string       Task to run (required)
//	-dir string        Working directory for the bash tool (default: cwd)
//	-config string     Path to YAML config with model and MCP server settings
//	-model string      Model ID (overrides config)
//	-reasoning string  Reasoning effort: low, medium, high (overrides config)
//	-max-steps int     Step budget (overrides config)
//	-confirm           Ask before executing each tool call
//	-tools string      Path to write bridged tool artifacts as JSON
//	-load-tools string Path to read bridged tool artifacts, skipping discovery
//	-verbose           Enable debug logging
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mkrawiec/relay"
	"github.com/mkrawiec/relay/agent"
	"github.com/mkrawiec/relay/bridge"
	"github.com/mkrawiec/relay/exec"
	"github.com/mkrawiec/relay/mcp"
	"github.com/mkrawiec/relay/openai"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var (
		task          = flag.String("task", "", "Task to run (required)")
		dir           = flag.String("dir", "", "Working directory for the bash tool (default: cwd)")
		configPath    = flag.String("config", "", "Path to YAML config")
		model         = flag.String("model", "", "Model ID (overrides config)")
		reasoning     = flag.String("reasoning", "", "Reasoning effort: low, medium, high (overrides config)")
		maxSteps      = flag.Int("max-steps", 0, "Step budget (overrides config)")
		confirm       = flag.Bool("confirm", false, "Ask before executing each tool call")
		artifactsPath = flag.String("tools", "", "Path to write bridged tool artifacts as JSON")
		loadToolsPath = flag.String("load-tools", "", "Path to read bridged tool artifacts, skipping discovery")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if strings.TrimSpace(*task) == "" {
		return fmt.Errorf("-task is required")
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cfg config
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *reasoning != "" {
		cfg.ReasoningEffort = *reasoning
	}
	if *maxSteps > 0 {
		cfg.MaxSteps = *maxSteps
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	var providerOpts []openai.Option
	if cfg.Model != "" {
		providerOpts = append(providerOpts, openai.WithModel(cfg.Model))
	}
	if cfg.ReasoningEffort != "" {
		providerOpts = append(providerOpts, openai.WithReasoningEffort(cfg.ReasoningEffort))
	}
	provider := openai.New(apiKey, providerOpts...)

	workDir := *dir
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = cwd
	}

	router := agent.NewRouter()
	if err := router.Register(exec.Tool(), exec.NewHandler(workDir)); err != nil {
		return err
	}

	if *loadToolsPath != "" && len(cfg.Servers) == 0 {
		return fmt.Errorf("-load-tools requires mcp_servers in the config to serve the loaded tools")
	}
	if len(cfg.Servers) > 0 {
		dispatcher := mcp.NewDispatcher(cfg.mcpServers(), mcp.WithLogger(log))
		defer dispatcher.Close()
		if *loadToolsPath != "" {
			if err := registerPersistedTools(router, dispatcher, *loadToolsPath); err != nil {
				return err
			}
		} else if err := registerBridgedTools(ctx, router, dispatcher, cfg.Servers, *artifactsPath); err != nil {
			return err
		}
	}

	opts := []agent.Option{
		agent.WithLogger(log),
		agent.WithEventHandler(printEvents(os.Stdout)),
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, agent.WithMaxSteps(cfg.MaxSteps))
	}
	if cfg.Instructions != "" {
		opts = append(opts, agent.WithInstructions(cfg.Instructions))
	}
	if *confirm {
		opts = append(opts, agent.WithConfirm(stdinConfirmer(os.Stdin, os.Stdout)))
	}

	result, err := agent.New(provider, router, opts...).Run(ctx, *task)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary)
	log.WithFields(logrus.Fields{
		"steps":      result.Steps,
		"tool_calls": result.ToolCalls,
	}).Info("run finished")
	return nil
}

// registerBridgedTools discovers tools on every configured server, bridges
// them into function tools, and registers them on the router behind a shared
// dispatcher-backed handler.
func registerBridgedTools(ctx context.Context, router *agent.Router, dispatcher *mcp.Dispatcher, servers []serverConfig, artifactsPath string) error {
	var allTools []relay.Tool
	merged := make(map[string]bridge.Entry)

	for _, s := range servers {
		descriptors, err := dispatcher.ListTools(ctx, s.Label)
		if err != nil {
			return fmt.Errorf("list tools on %q: %w", s.Label, err)
		}
		tools, index, err := bridge.Bridge(descriptors, s.Label)
		if err != nil {
			return fmt.Errorf("bridge tools from %q: %w", s.Label, err)
		}
		for name, entry := range index.Entries() {
			if _, ok := merged[name]; ok {
				return fmt.Errorf("bridged name %q from server %q is already taken", name, s.Label)
			}
			merged[name] = entry
		}
		allTools = append(allTools, tools...)
	}

	index := bridge.NewIndex(merged)
	handler := mcp.NewHandler(index, dispatcher)
	for _, tool := range allTools {
		if err := router.Register(tool, handler); err != nil {
			return err
		}
	}

	if artifactsPath != "" {
		if err := bridge.SaveArtifacts(artifactsPath, allTools, index); err != nil {
			return fmt.Errorf("save tool artifacts: %w", err)
		}
	}
	return nil
}

// registerPersistedTools registers tools from previously saved bridge
// artifacts instead of re-discovering them, so a later run reuses the
// bridged tool list and reverse index of an earlier one.
func registerPersistedTools(router *agent.Router, caller mcp.Caller, path string) error {
	tools, index, err := bridge.LoadArtifacts(path)
	if err != nil {
		return fmt.Errorf("load tool artifacts: %w", err)
	}
	handler := mcp.NewHandler(index, caller)
	for _, tool := range tools {
		if err := router.Register(tool, handler); err != nil {
			return err
		}
	}
	return nil
}
