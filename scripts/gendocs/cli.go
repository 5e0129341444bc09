package main

import (
	"cmp"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateCLIDocs generates CLI documentation from Cobra commands.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	// Create output directory
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Get root command
	rootCmd := cli.NewRootCmd()

	// Generate index page
	if err := generateCLIIndex(rootCmd, outDir); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	// Generate page for each command
	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		if err := generateCommandPage(cmd, outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}

	return nil
}

// generateCLIIndex generates the CLI overview page.
func generateCLIIndex(rootCmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()

	// Frontmatter
	w.Frontmatter("CLI Reference", "Command-line interface reference for sqllineage")
	w.GeneratedMarker()

	// Title and intro
	w.Header(1, "CLI Reference")
	w.Paragraph("sqllineage extracts table and column lineage from SQL scripts, persists it, and answers upstream and downstream queries over it.")

	// Installation
	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sqllineage/cmd/sqllineage@latest")

	// Basic usage
	w.Header(2, "Basic Usage")
	w.CodeBlock("bash", "sqllineage <command> [options]")

	// Commands table
	w.Header(2, "Commands")

	headers := []string{"Command", "Description"}
	var rows [][]string

	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}

	w.Table(headers, rows)

	// Global flags
	w.Header(2, "Global Options")
	w.Paragraph("These flags are available for all commands:")
	writeFlagsTable(w, rootCmd.PersistentFlags(), true)

	// Environment variables
	w.Header(2, "Environment Variables")
	w.Paragraph("Every configuration key can be set with an `SQLLINEAGE_` environment variable. Nested keys use a double underscore.")

	envHeaders := []string{"Variable", "Description"}
	envRows := [][]string{
		{InlineCode("SQLLINEAGE_DIALECT"), "SQL dialect"},
		{InlineCode("SQLLINEAGE_GLOB"), "File name pattern for directory inputs"},
		{InlineCode("SQLLINEAGE_SCHEMA"), "Schema overlay file"},
		{InlineCode("SQLLINEAGE_STATE_PATH"), "State database path"},
		{InlineCode("SQLLINEAGE_OUTPUT"), "Output format"},
		{InlineCode("SQLLINEAGE_MAX_STEPS"), "Default max hops for graph queries"},
		{InlineCode("SQLLINEAGE_READ_CONCURRENCY"), "Max files read concurrently"},
		{InlineCode("SQLLINEAGE_WATCH__DEBOUNCE"), "Watch debounce interval"},
	}
	w.Table(envHeaders, envRows)

	w.Paragraph("Command-line flags take precedence over environment variables, which take precedence over `sqllineage.yaml`.")

	// Exit codes
	w.Header(2, "Exit Codes")
	exitHeaders := []string{"Code", "Meaning"}
	exitRows := [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
	}
	w.Table(exitHeaders, exitRows)

	// Getting help
	w.Header(2, "Getting Help")
	w.CodeBlock("bash", `# General help
sqllineage help
sqllineage --help

# Command-specific help
sqllineage lineage --help`)

	// Write file
	filename := filepath.Join(outDir, "index.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

// generateCommandPage generates documentation for a single command.
func generateCommandPage(cmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	w.Paragraph(cmp.Or(cmd.Long, cmd.Short))

	w.Header(2, "Usage")
	w.CodeBlock("bash", "sqllineage "+strings.TrimPrefix(cmd.UseLine(), "sqllineage "))

	if args := usageArgs(cmd.Use); len(args) > 0 {
		w.Header(2, "Arguments")
		w.BulletList(args)
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags(), false)
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags(), true)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	if related := relatedCommands(cmd); len(related) > 0 {
		w.Header(2, "See Also")
		w.BulletList(related)
	}

	filename := filepath.Join(outDir, cmd.Name()+".md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

// usageArgs describes the positional arguments named in a Use line.
func usageArgs(use string) []string {
	var args []string
	for _, field := range strings.Fields(use)[1:] {
		name := strings.Trim(field, "<>[].")
		switch name {
		case "node":
			args = append(args, InlineCode(field)+": graph node, a table name or `table.column`")
		case "paths":
			args = append(args, InlineCode(field)+": SQL files, directories or `-` for stdin (default: project root)")
		case "dir":
			args = append(args, InlineCode(field)+": directory to watch (default: project root)")
		}
	}
	return args
}

// relatedCommands links the graph query commands to each other.
func relatedCommands(cmd *cobra.Command) []string {
	queries := []string{"lineage", "descendants", "neighbours"}
	if !slices.Contains(queries, cmd.Name()) {
		return nil
	}
	var links []string
	for _, name := range queries {
		if name != cmd.Name() {
			links = append(links, fmt.Sprintf("[%s](/cli/%s)", InlineCode(name), name))
		}
	}
	return links
}

// writeFlagsTable writes a table of flags. Global flags that map to a
// configuration key also list their environment variable.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet, withEnv bool) {
	headers := []string{"Option", "Default", "Description"}
	if withEnv {
		headers = append(headers, "Environment")
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}

		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option = InlineCode("-"+f.Shorthand) + ", " + option
		}

		defVal := f.DefValue
		switch f.Value.Type() {
		case "bool":
		case "int", "duration":
			if defVal == "0" || defVal == "0s" {
				defVal = ""
			}
		default:
			if defVal != "" {
				defVal = InlineCode(defVal)
			}
		}

		row := []string{option, defVal, cleanDescription(f.Usage)}
		if withEnv {
			row = append(row, flagEnv(f.Name))
		}
		rows = append(rows, row)
	})

	w.Table(headers, rows)
}

// flagEnv returns the environment variable for a global flag, or "" when
// the flag has no configuration key.
func flagEnv(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if name == "state" {
		key = "state_path"
	}
	for _, f := range getConfigSchema() {
		if f.Name == key {
			return InlineCode("SQLLINEAGE_" + strings.ToUpper(key))
		}
	}
	return ""
}

// cleanExample removes common leading whitespace from example text.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	if len(lines) == 0 {
		return example
	}

	// Find minimum indentation (ignoring empty lines)
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	if minIndent <= 0 {
		return strings.TrimSpace(example)
	}

	// Remove common indentation
	var result []string
	for _, line := range lines {
		if len(line) >= minIndent {
			result = append(result, line[minIndent:])
		} else {
			result = append(result, strings.TrimLeft(line, " \t"))
		}
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
