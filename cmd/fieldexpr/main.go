// Package main is the entry point for the fieldexpr CLI and server.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/binspec/fieldexpr/pkg/api"
	"github.com/binspec/fieldexpr/pkg/expr"
	"github.com/binspec/fieldexpr/pkg/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fieldexpr",
	Short: "Field constraint expression evaluator",
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression against a set of field assignments",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

var rpnCmd = &cobra.Command{
	Use:   "rpn <expression>",
	Short: "Print the postfix form of an expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runRPN,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the expression evaluation HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("fieldexpr version {{.Version}}\n")

	evalCmd.Flags().String("assignments", "", "YAML file of field assignments")
	evalCmd.Flags().Bool("verbose", false, "Log interpretation steps to stderr")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8990, env PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().String("assignments", "", "YAML file of server-wide field assignments (env ASSIGNMENTS)")

	rootCmd.AddCommand(evalCmd, rpnCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		expr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	assignments, err := loadAssignments(cmd)
	if err != nil {
		return err
	}

	e, err := expr.Parse(args[0])
	if err != nil {
		return err
	}

	result, err := e.Interpret(assignments)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

func runRPN(cmd *cobra.Command, args []string) error {
	e, err := expr.Parse(args[0])
	if err != nil {
		return err
	}

	for _, tok := range e.RPN() {
		fmt.Println(tok)
	}
	fmt.Printf("rendered: %s\n", e)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8990")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	assignmentsFile := os.Getenv("ASSIGNMENTS")
	if v, _ := cmd.Flags().GetString("assignments"); v != "" {
		assignmentsFile = v
	}

	var base map[string]types.Value
	if assignmentsFile != "" {
		var err error
		base, err = readAssignmentsFile(assignmentsFile)
		if err != nil {
			return err
		}
		log.Printf("Loaded %d assignment(s) from %s", len(base), assignmentsFile)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	server := api.New(base)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("fieldexpr listening on %s", addr)
	return server.Listen(addr)
}

// loadAssignments reads the --assignments flag, if set, into a value map.
func loadAssignments(cmd *cobra.Command) (map[string]types.Value, error) {
	path, _ := cmd.Flags().GetString("assignments")
	if path == "" {
		return nil, nil
	}
	return readAssignmentsFile(path)
}

func readAssignmentsFile(path string) (map[string]types.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assignments file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing assignments file: %w", err)
	}

	assignments := make(map[string]types.Value, len(raw))
	for k, v := range raw {
		val, err := types.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", k, err)
		}
		assignments[k] = val
	}
	return assignments, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
