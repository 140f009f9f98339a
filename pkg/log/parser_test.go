package log

import (
	"bytes"
	"testing"
)

const (
	governorProgram = "4pUwRrB9eVJLfYboBV4Xj6dB7HSuaGJri39B14bYxhVX"
	systemProgram   = "11111111111111111111111111111111"
)

func TestParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		line     string
		expected ParsedLog
	}{
		{
			name:     "invoke",
			line:     "Program " + governorProgram + " invoke [1]",
			expected: ParsedLog{Type: LogTypeInvoke, ProgramID: governorProgram, StackHeight: 1},
		},
		{
			name:     "success",
			line:     "Program " + systemProgram + " success",
			expected: ParsedLog{Type: LogTypeSuccess, ProgramID: systemProgram},
		},
		{
			name:     "failed",
			line:     "Program " + governorProgram + " failed: custom program error: 0x1771",
			expected: ParsedLog{Type: LogTypeFailed, ProgramID: governorProgram, Reason: "custom program error: 0x1771"},
		},
		{
			name:     "log",
			line:     "Program log: Instruction: Initialize",
			expected: ParsedLog{Type: LogTypeLog, Message: "Instruction: Initialize"},
		},
		{
			name:     "data",
			line:     "Program data: AQID",
			expected: ParsedLog{Type: LogTypeData, Data: []byte{1, 2, 3}},
		},
		{
			name:     "unknown",
			line:     "something else",
			expected: ParsedLog{Type: LogTypeUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.line)
			if got.Type != tt.expected.Type {
				t.Fatalf("expected type %s, got %s", tt.expected.Type, got.Type)
			}
			if got.ProgramID != tt.expected.ProgramID {
				t.Errorf("expected program %q, got %q", tt.expected.ProgramID, got.ProgramID)
			}
			if got.StackHeight != tt.expected.StackHeight {
				t.Errorf("expected stack height %d, got %d", tt.expected.StackHeight, got.StackHeight)
			}
			if got.Reason != tt.expected.Reason {
				t.Errorf("expected reason %q, got %q", tt.expected.Reason, got.Reason)
			}
			if got.Message != tt.expected.Message {
				t.Errorf("expected message %q, got %q", tt.expected.Message, got.Message)
			}
			if !bytes.Equal(got.Data, tt.expected.Data) {
				t.Errorf("expected data %v, got %v", tt.expected.Data, got.Data)
			}
			if got.RawLog != tt.line {
				t.Errorf("expected raw log %q, got %q", tt.line, got.RawLog)
			}
		})
	}
}

func TestParseComputeUnits(t *testing.T) {
	cu := NewParser().Parse("Program " + governorProgram + " consumed 1200 of 200000 compute units")
	if cu.Type != LogTypeComputeUnits {
		t.Fatalf("expected ComputeUnits, got %s", cu.Type)
	}
	if cu.ComputeUnits == nil {
		t.Fatal("expected compute units to be set")
	}
	if *cu.ComputeUnits != 1200 {
		t.Errorf("expected 1200, got %d", *cu.ComputeUnits)
	}
}

func TestBuild(t *testing.T) {
	logs := []string{
		"Program " + governorProgram + " invoke [1]",
		"Program log: Instruction: Initialize",
		"Program " + systemProgram + " invoke [2]",
		"Program " + systemProgram + " success",
		"Program " + governorProgram + " success",
		"Program " + systemProgram + " invoke [1]",
		"Program " + systemProgram + " failed: custom program error: 0x1",
	}

	roots, err := NewParser().Build(logs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(roots))
	}

	gov := roots[0]
	if !gov.Path.Equals(InstructionPath{0}) {
		t.Errorf("expected path [0], got %s", gov.Path)
	}
	if name := gov.Instruction(); name != "Initialize" {
		t.Errorf("expected Initialize, got %q", name)
	}
	if !gov.Completed || !gov.Succeeded {
		t.Errorf("expected completed success, got completed=%t succeeded=%t", gov.Completed, gov.Succeeded)
	}
	if len(gov.Inner) != 1 {
		t.Fatalf("expected 1 inner invocation, got %d", len(gov.Inner))
	}
	inner := gov.Inner[0]
	if !inner.Path.Equals(InstructionPath{0, 0}) {
		t.Errorf("expected path [0, 0], got %s", inner.Path)
	}
	if inner.ProgramID != systemProgram {
		t.Errorf("expected %s, got %s", systemProgram, inner.ProgramID)
	}
	if gov.Find(InstructionPath{0, 0}) != inner {
		t.Error("expected Find to return the inner invocation")
	}
	if gov.Find(InstructionPath{0, 1}) != nil {
		t.Error("expected Find to return nil for a missing path")
	}

	failed := roots[1]
	if s := failed.Path.String(); s != "[1]" {
		t.Errorf("expected [1], got %s", s)
	}
	if failed.Succeeded {
		t.Error("expected failed invocation")
	}
	if failed.Reason != "custom program error: 0x1" {
		t.Errorf("unexpected reason %q", failed.Reason)
	}
	if name := failed.Instruction(); name != "" {
		t.Errorf("expected no instruction name, got %q", name)
	}
}

func TestBuildMalformed(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		logs []string
	}{
		{"skipped depth", []string{"Program " + governorProgram + " invoke [2]"}},
		{"orphan return", []string{"Program " + governorProgram + " success"}},
		{"mismatched return", []string{"Program " + governorProgram + " invoke [1]", "Program " + systemProgram + " success"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Build(tt.logs); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuildTruncated(t *testing.T) {
	roots, err := NewParser().Build([]string{"Program " + governorProgram + " invoke [1]"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(roots))
	}
	if roots[0].Completed {
		t.Error("expected an incomplete invocation")
	}
}
