// Package main provides the patcher CLI: create a binary patch between two
// directory trees, or apply one to a target directory.
//
// Usage:
//
//	patcher create -old <dir> -new <dir> -output <patch file>
//	patcher apply  -target <dir> -patch <patch file>
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Vadimus1983/patcher/internal/applier"
	"github.com/Vadimus1983/patcher/internal/builder"
	"github.com/Vadimus1983/patcher/internal/patchformat"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s create -old <dir> -new <dir> -output <patch file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s apply  -target <dir> -patch <patch file>\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "apply":
		runApply(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

// createConfig holds the parsed flags for the "create" subcommand.
type createConfig struct {
	old, newDir, output string
}

// parseCreateArgs parses the "create" subcommand's flags, returning an error
// (rather than exiting) so it can be exercised directly from tests.
func parseCreateArgs(args []string) (createConfig, error) {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	old := fs.String("old", "", "path to the old (original) directory")
	newDir := fs.String("new", "", "path to the new (updated) directory")
	output := fs.String("output", "", "output path for the patch file")
	if err := fs.Parse(args); err != nil {
		return createConfig{}, err
	}

	if *old == "" || *newDir == "" || *output == "" {
		return createConfig{}, fmt.Errorf("create requires -old, -new and -output")
	}
	return createConfig{old: *old, newDir: *newDir, output: *output}, nil
}

func runCreate(args []string) {
	cfg, err := parseCreateArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	fmt.Println("Creating patch...")
	fmt.Printf("  Old: %s\n", cfg.old)
	fmt.Printf("  New: %s\n", cfg.newDir)
	fmt.Printf("  Output: %s\n", cfg.output)

	start := time.Now()
	summary, err := builder.CreatePatch(cfg.old, cfg.newDir, cfg.output)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	printSummary("Patch created successfully!", summary, elapsed)
}

// applyConfig holds the parsed flags for the "apply" subcommand.
type applyConfig struct {
	target, patch string
}

// parseApplyArgs parses the "apply" subcommand's flags, returning an error
// (rather than exiting) so it can be exercised directly from tests.
func parseApplyArgs(args []string) (applyConfig, error) {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	target := fs.String("target", "", "path to the target directory to patch")
	patch := fs.String("patch", "", "path to the patch file")
	if err := fs.Parse(args); err != nil {
		return applyConfig{}, err
	}

	if *target == "" || *patch == "" {
		return applyConfig{}, fmt.Errorf("apply requires -target and -patch")
	}
	return applyConfig{target: *target, patch: *patch}, nil
}

func runApply(args []string) {
	cfg, err := parseApplyArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	fmt.Println("Applying patch...")
	fmt.Printf("  Target: %s\n", cfg.target)
	fmt.Printf("  Patch: %s\n", cfg.patch)

	start := time.Now()
	summary, err := applier.ApplyPatch(cfg.target, cfg.patch)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	printSummary("Patch applied successfully!", summary, elapsed)
}

func printSummary(heading string, summary patchformat.Summary, elapsed time.Duration) {
	fmt.Println()
	fmt.Println(heading)
	fmt.Printf("  Directories created: %d\n", summary.DirsCreated)
	fmt.Printf("  Files added: %d\n", summary.FilesAdded)
	fmt.Printf("  Files modified: %d\n", summary.FilesModified)
	fmt.Printf("  Files deleted: %d\n", summary.FilesDeleted)
	fmt.Printf("  Directories deleted: %d\n", summary.DirsDeleted)
	fmt.Printf("  Time elapsed: %.3fs\n", elapsed.Seconds())
}
