package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zen-systems/promptdock/pkg/adapter"
	"github.com/zen-systems/promptdock/pkg/config"
	"github.com/zen-systems/promptdock/pkg/dock"
	"github.com/zen-systems/promptdock/pkg/mcp"
	"github.com/zen-systems/promptdock/pkg/memory"
	"github.com/zen-systems/promptdock/pkg/orchestrator"
	"github.com/zen-systems/promptdock/pkg/reason"
	"github.com/zen-systems/promptdock/pkg/scope"
)

var (
	adapterFlag string
	modelFlag   string
	verboseFlag bool
	logger      *slog.Logger
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "promptdock",
		Short: "Structured LLM assistant with context layers, memory, and guardrails",
		Long: `Promptdock evolves a prompt-only chatbot into a structured assistant:
	externalized context, goal planning, tool invocation, persistent memory,
	guardrail checks, a deterministic execution pipeline, and a minimal
	JSON-RPC server/client pair over stdio.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verboseFlag {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	rootCmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "override adapter (anthropic, openai, google, deepseek, mock)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(memoryCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	name := cfg.Reasoner.Adapter
	if adapterFlag != "" {
		name = adapterFlag
	}
	a, err := createAdapter(cfg, name)
	if err != nil {
		return nil, err
	}

	model := cfg.Reasoner.Model
	if modelFlag != "" {
		model = modelFlag
	}
	r := reason.New(a, model, logger, reason.WithTemperature(cfg.Reasoner.Temperature))

	store, err := memory.NewFileStore(cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open persistent memory: %w", err)
	}

	scopes := scope.NewHierarchy()
	if cfg.Project.Name != "" {
		scopes.SetProject(cfg.Project.Name, cfg.Project.Language, cfg.Project.Framework)
	}

	return orchestrator.New(r,
		orchestrator.WithPersistentMemory(store),
		orchestrator.WithScopes(scopes),
		orchestrator.WithLogger(logger),
	), nil
}

func createAdapter(cfg *config.Config, name string) (adapter.Adapter, error) {
	switch name {
	case "anthropic":
		return adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
	case "openai":
		return adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
	case "google":
		return adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
	case "deepseek":
		return adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
	case "mock", "":
		return adapter.NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Process a single instruction and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}
			out, err := o.Run(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session with context, memory, and planning",
		Long: `Starts a REPL. Besides free-form instructions, a few commands are
	handled locally:

	  next             execute the next step of the active plan
	  read <path>      read a project file into context
	  open <path>      mark a file as open in the editor layer
	  todo             show pending TODO items
	  status           show orchestrator state
	  rules            show guardrail rules and violations
	  quit             exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}

			cwd, _ := os.Getwd()
			files := dock.NewFileReader(cwd)
			editor := dock.NewEditor()
			todos := dock.NewTodoList(cwd + "/TODO.md")
			ctx := context.Background()

			fmt.Println("promptdock chat. Type 'quit' to exit.")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				cmdWord, rest, _ := strings.Cut(line, " ")
				switch cmdWord {
				case "quit", "exit":
					fmt.Println("Session:", o.Scopes().Session.Duration())
					return nil
				case "next":
					out, err := o.ExecuteStep(ctx)
					if err != nil {
						return err
					}
					fmt.Println(out)
				case "read":
					content, err := files.Read(rest)
					if err != nil {
						fmt.Println("Error:", err)
						continue
					}
					fmt.Println(content)
				case "open":
					editor.Open(rest)
					fmt.Println("Opened:", rest)
				case "todo":
					fmt.Println(todos.ContextString())
				case "status":
					fmt.Println(o.Status())
				case "rules":
					fmt.Println(o.GuardrailStatus())
				default:
					out, err := o.Run(ctx, line)
					if err != nil {
						return err
					}
					fmt.Println(out)
				}
			}
			return scanner.Err()
		},
	}
}

func serveCmd() *cobra.Command {
	var rootDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve project resources and tools over stdio JSON-RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootDir
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = cwd
			}
			server := mcp.NewServer(dir, logger)
			return server.Run(os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", "", "project root to serve (defaults to cwd)")
	return cmd
}

func clientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client",
		Short: "Connect to a serve subprocess and walk its resources and tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return err
			}

			c := mcp.NewClient(exe, "serve")
			info, err := c.Connect()
			if err != nil {
				return err
			}
			defer c.Disconnect()

			fmt.Printf("Connected: %v\n\n", info["serverInfo"])

			resources, err := c.ListResources()
			if err != nil {
				return err
			}
			fmt.Println("Resources:")
			for _, r := range resources {
				fmt.Printf("  %s - %s\n", r["uri"], r["description"])
			}

			tools, err := c.ListTools()
			if err != nil {
				return err
			}
			fmt.Println("\nTools:")
			for _, t := range tools {
				fmt.Printf("  %s - %s\n", t["name"], t["description"])
			}

			status, err := c.ReadResource("git://status")
			if err != nil {
				return err
			}
			fmt.Println("\ngit://status:")
			fmt.Println(status)
			return nil
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show guardrail rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RULE\tCATEGORY\tSEVERITY\tDESCRIPTION")
			for _, r := range o.Guards().Rules() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Category, r.Severity, r.Description)
			}
			return w.Flush()
		},
	}
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage persistent memory",
	}

	withStore := func(run func(store *memory.FileStore) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := memory.NewFileStore(cfg.Memory.Path)
			if err != nil {
				return err
			}
			return run(store)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored keys by category",
		RunE: withStore(func(store *memory.FileStore) error {
			categories := store.Categories()
			if len(categories) == 0 {
				fmt.Println("Memory is empty.")
				return nil
			}
			sort.Strings(categories)
			for _, cat := range categories {
				fmt.Printf("[%s]\n", cat)
				for _, key := range store.Keys(cat) {
					fmt.Printf("  %s = %v\n", key, store.Retrieve(key, ""))
				}
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search [query]",
		Short: "Search keys and values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *memory.FileStore) error {
				matches := store.Search(args[0])
				if len(matches) == 0 {
					fmt.Println("No matches.")
					return nil
				}
				for _, m := range matches {
					fmt.Printf("%s = %v\n", m.Key, m.Value)
				}
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: withStore(func(store *memory.FileStore) error {
			stats := store.Stats()
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s: %v\n", k, stats[k])
			}
			return nil
		}),
	})

	var categoryFlag string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *memory.FileStore) error {
				n, err := store.Clear(categoryFlag)
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d record(s).\n", n)
				return nil
			})(cmd, args)
		},
	}
	clearCmd.Flags().StringVar(&categoryFlag, "category", "", "only clear this category")
	cmd.AddCommand(clearCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "export [path]",
		Short: "Export the store to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *memory.FileStore) error {
				if err := store.Export(args[0]); err != nil {
					return err
				}
				fmt.Println("Exported to", args[0])
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import [path]",
		Short: "Import records from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *memory.FileStore) error {
				n, err := store.Import(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Imported %d record(s).\n", n)
				return nil
			})(cmd, args)
		},
	})

	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tCONFIRM\tDESCRIPTION")
			for _, t := range o.Tools().List() {
				confirm := ""
				if t.RequiresConfirmation {
					confirm = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, confirm, t.Description)
			}
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List adapters and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, name := range []string{"anthropic", "openai", "google", "deepseek", "mock"} {
				a, err := createAdapter(cfg, name)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\tno key\n", name)
					continue
				}
				status := "no key"
				if cfg.HasAdapter(name) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(a.Models(), ", "), status)
			}
			return w.Flush()
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show orchestrator state",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator()
			if err != nil {
				return err
			}
			fmt.Println(o.Status())
			return nil
		},
	}
}
