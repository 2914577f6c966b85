package main

import "testing"

func TestParseCreateArgsBasic(t *testing.T) {
	cfg, err := parseCreateArgs([]string{"-old", "old_dir", "-new", "new_dir", "-output", "out.patch"})
	if err != nil {
		t.Fatalf("parseCreateArgs error: %v", err)
	}
	if cfg.old != "old_dir" || cfg.newDir != "new_dir" || cfg.output != "out.patch" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseCreateArgsMissingRequired(t *testing.T) {
	if _, err := parseCreateArgs([]string{"-old", "old_dir"}); err == nil {
		t.Fatal("expected error when -new and -output are missing")
	}
}

func TestParseApplyArgsBasic(t *testing.T) {
	cfg, err := parseApplyArgs([]string{"-target", "target_dir", "-patch", "out.patch"})
	if err != nil {
		t.Fatalf("parseApplyArgs error: %v", err)
	}
	if cfg.target != "target_dir" || cfg.patch != "out.patch" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseApplyArgsMissingRequired(t *testing.T) {
	if _, err := parseApplyArgs([]string{"-target", "target_dir"}); err == nil {
		t.Fatal("expected error when -patch is missing")
	}
}
