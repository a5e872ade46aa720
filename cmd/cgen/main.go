// Command cgen is the CLI collaborator spec.md §6 names as external to
// the core: it parses flags, optionally loads a YAML options file,
// calls pipeline.Module, prints diagnostics, and writes the emitted C
// file. None of this is part of the translator itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/shakfu/cgen-go/internal/emitter"
	"github.com/shakfu/cgen-go/internal/pipeline"
)

var (
	Version = "dev"
	Commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// exit codes per spec.md §6.
const (
	exitSuccess          = 0
	exitTranslationError = 1
	exitVerifierRefuted  = 2
	exitIOFailure        = 3
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		outFlag     = flag.String("o", "", "Output .c path (default: input path with .c extension)")
		optionsFlag = flag.String("options", "", "YAML options file (spec.md §6 Options keys)")
		analysisF   = flag.String("analysis-level", "COMPREHENSIVE", "BASIC | COMPREHENSIVE")
		optLevelF   = flag.String("optimization-level", "BASIC", "NONE | BASIC | MODERATE | AGGRESSIVE")
		braceF      = flag.String("style.brace-placement", "ATTACH", "ATTACH | NEXT_LINE")
		indentF     = flag.Int("style.indent-width", 4, "indent width in spaces")
		pointerF    = flag.String("style.pointer-alignment", "LEFT", "LEFT | MIDDLE | RIGHT")
		hpclF       = flag.Bool("hpcl.enabled", true, "lower container ops through HPCL")
		archF       = flag.String("target.arch", "", "X86_64 | ARM (empty: all)")
		vecWidthF   = flag.Int("target.vector-width", 4, "default vector width hint")
		smtF        = flag.Bool("smt.enabled", true, "enable the SMT-backed verifiers")
		timeoutF    = flag.Int("smt.timeout-ms", 30000, "per-query SMT timeout in milliseconds")
		allowStubsF = flag.Bool("allow-stubs", false, "emit a best-effort stub past UNSUPPORTED_* constructs")
		timingsFlag = flag.Bool("timings", false, "print per-phase timings after translation")
	)

	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	inPath := flag.Arg(0)
	opts := pipeline.DefaultOptions()
	applyFlags(&opts, *analysisF, *optLevelF, *braceF, *indentF, *pointerF, *hpclF, *archF, *vecWidthF, *smtF, *timeoutF, *allowStubsF)

	if *optionsFlag != "" {
		if err := loadOptionsFile(*optionsFlag, &opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(exitIOFailure)
		}
	}

	source, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read file '%s': %v\n", red("Error"), inPath, err)
		os.Exit(exitIOFailure)
	}

	fmt.Printf("%s Translating %s...\n", cyan("→"), inPath)
	result, err := pipeline.Module(string(source), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(exitTranslationError)
	}

	printIssues(result)
	if *timingsFlag {
		printTimings(result)
	}

	if !result.Success {
		fmt.Fprintf(os.Stderr, "\n%s translation failed\n", red("✗"))
		os.Exit(exitTranslationError)
	}

	outPath := resolveOutPath(inPath, *outFlag)
	if err := os.WriteFile(outPath, []byte(result.Source), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot write '%s': %v\n", red("Error"), outPath, err)
		os.Exit(exitIOFailure)
	}

	if refutationCode := refutedExitCode(result); refutationCode != exitSuccess {
		fmt.Printf("%s wrote %s (verifier refuted an obligation)\n", yellow("!"), outPath)
		os.Exit(refutationCode)
	}

	fmt.Printf("\n%s wrote %s\n", green("✓"), outPath)
}

func applyFlags(opts *pipeline.Options, analysisLevel, optLevel, brace string, indent int, pointer string, hpclEnabled bool, arch string, vecWidth int, smtEnabled bool, timeoutMs int, allowStubs bool) {
	switch strings.ToUpper(analysisLevel) {
	case "BASIC":
		opts.AnalysisLevel = pipeline.AnalysisBasic
	default:
		opts.AnalysisLevel = pipeline.AnalysisComprehensive
	}

	switch strings.ToUpper(optLevel) {
	case "NONE":
		opts.OptimizationLevel = pipeline.OptimizationNone
	case "MODERATE":
		opts.OptimizationLevel = pipeline.OptimizationModerate
	case "AGGRESSIVE":
		opts.OptimizationLevel = pipeline.OptimizationAggressive
	default:
		opts.OptimizationLevel = pipeline.OptimizationBasic
	}

	switch strings.ToUpper(brace) {
	case "NEXT_LINE":
		opts.Style.Brace = emitter.BraceNextLine
	default:
		opts.Style.Brace = emitter.BraceAttach
	}
	opts.Style.IndentWidth = indent

	switch strings.ToUpper(pointer) {
	case "MIDDLE":
		opts.Style.Pointer = emitter.PointerMiddle
	case "RIGHT":
		opts.Style.Pointer = emitter.PointerRight
	default:
		opts.Style.Pointer = emitter.PointerLeft
	}
	opts.Style.HPCLEnabled = hpclEnabled

	opts.TargetArch = strings.ToUpper(arch)
	opts.TargetVectorWidth = vecWidth
	opts.SMTEnabled = smtEnabled
	opts.SMTTimeoutMs = timeoutMs
	opts.AllowStubs = allowStubs
}

// optionsFile mirrors spec.md §6's dotted Options keys as a nested YAML
// document (e.g. `style: {brace_placement: NEXT_LINE}`).
type optionsFile struct {
	AnalysisLevel     string `yaml:"analysis_level"`
	OptimizationLevel string `yaml:"optimization_level"`
	Style             struct {
		BracePlacement   string `yaml:"brace_placement"`
		IndentWidth      int    `yaml:"indent_width"`
		PointerAlignment string `yaml:"pointer_alignment"`
	} `yaml:"style"`
	HPCL struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"hpcl"`
	Target struct {
		Arch        string `yaml:"arch"`
		VectorWidth int    `yaml:"vector_width"`
	} `yaml:"target"`
	SMT struct {
		Enabled   bool `yaml:"enabled"`
		TimeoutMs int  `yaml:"timeout_ms"`
	} `yaml:"smt"`
	AllowStubs bool `yaml:"allow_stubs"`
}

func loadOptionsFile(path string, opts *pipeline.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading options file: %w", err)
	}
	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing options file: %w", err)
	}
	if f.AnalysisLevel != "" || f.OptimizationLevel != "" || f.Style.BracePlacement != "" || f.Style.PointerAlignment != "" {
		applyFlags(opts,
			firstNonEmpty(f.AnalysisLevel, "COMPREHENSIVE"),
			firstNonEmpty(f.OptimizationLevel, "BASIC"),
			firstNonEmpty(f.Style.BracePlacement, "ATTACH"),
			nonZero(f.Style.IndentWidth, opts.Style.IndentWidth),
			firstNonEmpty(f.Style.PointerAlignment, "LEFT"),
			f.HPCL.Enabled || opts.Style.HPCLEnabled,
			f.Target.Arch,
			nonZero(f.Target.VectorWidth, opts.TargetVectorWidth),
			f.SMT.Enabled || opts.SMTEnabled,
			nonZero(f.SMT.TimeoutMs, opts.SMTTimeoutMs),
			f.AllowStubs || opts.AllowStubs,
		)
	}
	return nil
}

func firstNonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonZero(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func resolveOutPath(inPath, outFlag string) string {
	if outFlag != "" {
		return outFlag
	}
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".c"
}

// refutedExitCode returns exitVerifierRefuted when any verify report
// carries a REFUTED verdict, else exitSuccess.
func refutedExitCode(result *pipeline.TranslationResult) int {
	for _, iss := range result.Issues {
		if iss.Code == "VER001" {
			return exitVerifierRefuted
		}
	}
	return exitSuccess
}

func printIssues(result *pipeline.TranslationResult) {
	for _, iss := range result.Issues {
		switch iss.Severity {
		case pipeline.SeverityError:
			fmt.Printf("%s [%s/%s] %s", red("error"), iss.Phase, iss.Code, iss.Message)
		case pipeline.SeverityWarning:
			fmt.Printf("%s [%s/%s] %s", yellow("warning"), iss.Phase, iss.Code, iss.Message)
		default:
			fmt.Printf("%s [%s/%s] %s", cyan("info"), iss.Phase, iss.Code, iss.Message)
		}
		if iss.Line > 0 {
			fmt.Printf(" (line %d)", iss.Line)
		}
		fmt.Println()
	}
}

func printTimings(result *pipeline.TranslationResult) {
	phases := []string{"parse", "validate", "typecheck", "build", "analyze", "optimize", "verify", "emit"}
	fmt.Println(cyan("\nphase timings:"))
	for _, phase := range phases {
		fmt.Printf("  %-10s %dms\n", phase, result.PhaseTimings[phase])
	}
}

func printVersion() {
	fmt.Printf("cgen %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	fmt.Println("\nA Python-subset-to-C ahead-of-time translator")
}

func printHelp() {
	fmt.Println(bold("cgen - translate a Python subset to C"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cgen [flags] <file.py>")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Exit codes: 0 success, 1 translation error, 2 verifier refutation, 3 I/O failure.")
}
