package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/etl"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	command := strings.ToLower(strings.TrimSpace(args[0]))
	switch {
	case command == "help" || command == "--help" || command == "-h":
		printUsage()
		return 0
	case command == "health":
		return runHealth(args[1:])
	case command == "all":
		return runStages(command, etl.StageNames, args[1:])
	case etl.IsStage(command):
		return runStages(command, []string{command}, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "slr-dwh CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  slr-dwh <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  keyword      Load dim_keyword")
	fmt.Fprintln(os.Stderr, "  author       Load dim_author with Type 1/Type 2 changes")
	fmt.Fprintln(os.Stderr, "  journal      Load dim_journal")
	fmt.Fprintln(os.Stderr, "  paper        Load dim_paper with author and keyword groups")
	fmt.Fprintln(os.Stderr, "  paragraph    Load dim_paragraph")
	fmt.Fprintln(os.Stderr, "  sentence     Load dim_sentence with citation groups")
	fmt.Fprintln(os.Stderr, "  entity       Load dim_entity and map_entity_hierarchy")
	fmt.Fprintln(os.Stderr, "  fact         Load fact_entity_detection")
	fmt.Fprintln(os.Stderr, "  aggregation  Rebuild agg_paper")
	fmt.Fprintln(os.Stderr, "  all          Run every stage in dependency order")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity and show recent runs")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"slr-dwh <command> -h\" for command-specific flags.")
}
