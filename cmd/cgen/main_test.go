package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shakfu/cgen-go/internal/emitter"
	"github.com/shakfu/cgen-go/internal/pipeline"
)

func TestApplyFlagsMapsEveryOption(t *testing.T) {
	opts := pipeline.DefaultOptions()
	applyFlags(&opts, "BASIC", "AGGRESSIVE", "NEXT_LINE", 2, "RIGHT", false, "arm", 8, false, 1000, true)

	if opts.AnalysisLevel != pipeline.AnalysisBasic {
		t.Errorf("analysis level not applied: %v", opts.AnalysisLevel)
	}
	if opts.OptimizationLevel != pipeline.OptimizationAggressive {
		t.Errorf("optimization level not applied: %v", opts.OptimizationLevel)
	}
	if opts.Style.Brace != emitter.BraceNextLine {
		t.Errorf("brace placement not applied: %v", opts.Style.Brace)
	}
	if opts.Style.IndentWidth != 2 {
		t.Errorf("indent width not applied: %d", opts.Style.IndentWidth)
	}
	if opts.Style.Pointer != emitter.PointerRight {
		t.Errorf("pointer alignment not applied: %v", opts.Style.Pointer)
	}
	if opts.Style.HPCLEnabled {
		t.Error("expected hpcl.enabled=false to be applied")
	}
	if opts.TargetArch != "ARM" {
		t.Errorf("target arch not uppercased/applied: %q", opts.TargetArch)
	}
	if opts.TargetVectorWidth != 8 {
		t.Errorf("vector width not applied: %d", opts.TargetVectorWidth)
	}
	if opts.SMTEnabled {
		t.Error("expected smt.enabled=false to be applied")
	}
	if opts.SMTTimeoutMs != 1000 {
		t.Errorf("smt timeout not applied: %d", opts.SMTTimeoutMs)
	}
	if !opts.AllowStubs {
		t.Error("expected allow-stubs=true to be applied")
	}
}

func TestResolveOutPathDefaultsToCExtension(t *testing.T) {
	if got := resolveOutPath("module.py", ""); got != "module.c" {
		t.Errorf("expected module.c, got %s", got)
	}
	if got := resolveOutPath("module.py", "out.c"); got != "out.c" {
		t.Errorf("expected the explicit -o path to win, got %s", got)
	}
}

func TestRefutedExitCodeFindsVER001(t *testing.T) {
	res := &pipeline.TranslationResult{Issues: []pipeline.Issue{
		{Severity: pipeline.SeverityInfo, Code: "VER002"},
		{Severity: pipeline.SeverityError, Code: "VER001"},
	}}
	if code := refutedExitCode(res); code != exitVerifierRefuted {
		t.Errorf("expected exitVerifierRefuted, got %d", code)
	}
}

func TestRefutedExitCodeDefaultsToSuccess(t *testing.T) {
	res := &pipeline.TranslationResult{Issues: []pipeline.Issue{
		{Severity: pipeline.SeverityInfo, Code: "VER002"},
	}}
	if code := refutedExitCode(res); code != exitSuccess {
		t.Errorf("expected exitSuccess, got %d", code)
	}
}

func TestLoadOptionsFileAppliesYAMLKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	content := "optimization_level: NONE\nstyle:\n  brace_placement: NEXT_LINE\n  indent_width: 2\ntarget:\n  arch: ARM\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opts := pipeline.DefaultOptions()
	if err := loadOptionsFile(path, &opts); err != nil {
		t.Fatalf("loadOptionsFile: %v", err)
	}
	if opts.OptimizationLevel != pipeline.OptimizationNone {
		t.Errorf("expected optimization_level: NONE to apply, got %v", opts.OptimizationLevel)
	}
	if opts.Style.Brace != emitter.BraceNextLine {
		t.Errorf("expected brace_placement: NEXT_LINE to apply, got %v", opts.Style.Brace)
	}
	if opts.Style.IndentWidth != 2 {
		t.Errorf("expected indent_width: 2 to apply, got %d", opts.Style.IndentWidth)
	}
	if opts.TargetArch != "ARM" {
		t.Errorf("expected target.arch: ARM to apply, got %q", opts.TargetArch)
	}
}
