// Package log parses transaction log messages into an invocation tree.
//
// A ledger reports the execution of a transaction as flat log lines:
//
//	Program 4pUw...bYxhVX invoke [1]
//	Program log: Instruction: Initialize
//	Program 11111111111111111111111111111111 invoke [2]
//	Program 11111111111111111111111111111111 success
//	Program 4pUw...bYxhVX success
//
// Parse classifies a single line; Build folds a whole transaction into
// Invocations so callers can audit what each program did.
package log

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LogType represents the type of a log message.
type LogType int

const (
	// LogTypeUnknown represents an unrecognized log message.
	LogTypeUnknown LogType = iota
	// LogTypeInvoke represents a "Program X invoke [N]" message.
	LogTypeInvoke
	// LogTypeSuccess represents a "Program X success" message.
	LogTypeSuccess
	// LogTypeFailed represents a "Program X failed: REASON" message.
	LogTypeFailed
	// LogTypeData represents a "Program data: BASE64" message.
	LogTypeData
	// LogTypeLog represents a "Program log: MESSAGE" message.
	LogTypeLog
	// LogTypeComputeUnits represents a compute units consumed message.
	LogTypeComputeUnits
)

func (lt LogType) String() string {
	switch lt {
	case LogTypeInvoke:
		return "Invoke"
	case LogTypeSuccess:
		return "Success"
	case LogTypeFailed:
		return "Failed"
	case LogTypeData:
		return "Data"
	case LogTypeLog:
		return "Log"
	case LogTypeComputeUnits:
		return "ComputeUnits"
	default:
		return "Unknown"
	}
}

// ParsedLog is one classified log line.
type ParsedLog struct {
	Type LogType

	// StackHeight is the call depth of an Invoke line, starting at 1.
	StackHeight int

	// ProgramID is set for Invoke, Success, Failed and ComputeUnits lines.
	ProgramID string

	// Data is the decoded payload of a "Program data:" line.
	Data []byte

	// Message is the text of a "Program log:" line.
	Message string

	// Reason is the failure text of a Failed line.
	Reason string

	ComputeUnits *uint64

	RawLog string
}

// LogParser parses transaction logs.
type LogParser struct {
	invoke       *regexp.Regexp
	success      *regexp.Regexp
	failed       *regexp.Regexp
	data         *regexp.Regexp
	log          *regexp.Regexp
	computeUnits *regexp.Regexp
}

// NewParser creates a new LogParser.
func NewParser() *LogParser {
	return &LogParser{
		invoke:       regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]$`),
		success:      regexp.MustCompile(`^Program (\S+) success$`),
		failed:       regexp.MustCompile(`^Program (\S+) failed(?:: (.*))?$`),
		data:         regexp.MustCompile(`^Program data: (.+)$`),
		log:          regexp.MustCompile(`^Program log: (.*)$`),
		computeUnits: regexp.MustCompile(`^Program (\S+) consumed (\d+) of \d+ compute units$`),
	}
}

// Parse classifies a single log message.
func (p *LogParser) Parse(logMessage string) *ParsedLog {
	result := &ParsedLog{
		Type:   LogTypeUnknown,
		RawLog: logMessage,
	}

	if m := p.invoke.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeInvoke
		result.ProgramID = m[1]
		result.StackHeight, _ = strconv.Atoi(m[2])
		return result
	}
	if m := p.success.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeSuccess
		result.ProgramID = m[1]
		return result
	}
	if m := p.failed.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeFailed
		result.ProgramID = m[1]
		result.Reason = m[2]
		return result
	}
	if m := p.data.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeData
		if decoded, err := base64.StdEncoding.DecodeString(m[1]); err == nil {
			result.Data = decoded
		}
		return result
	}
	if m := p.log.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeLog
		result.Message = m[1]
		return result
	}
	if m := p.computeUnits.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeComputeUnits
		result.ProgramID = m[1]
		if cu, err := strconv.ParseUint(m[2], 10, 64); err == nil {
			result.ComputeUnits = &cu
		}
		return result
	}
	return result
}

// InstructionPath locates an invocation: [0] is the first top-level
// instruction, [0, 1] the second inner invocation of it.
type InstructionPath []uint8

func (path InstructionPath) String() string {
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = strconv.Itoa(int(idx))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equals checks if two paths are equal.
func (path InstructionPath) Equals(other InstructionPath) bool {
	if len(path) != len(other) {
		return false
	}
	for i := range path {
		if path[i] != other[i] {
			return false
		}
	}
	return true
}

// Invocation is one program invocation reconstructed from the logs.
type Invocation struct {
	Path      InstructionPath
	ProgramID string

	// Messages are the "Program log:" lines emitted directly by this invocation.
	Messages []string
	Data     [][]byte

	// Completed is false when the logs end before the invocation returned.
	Completed bool
	Succeeded bool
	Reason    string

	Inner []*Invocation
}

// Instruction returns the instruction name announced by an Anchor-style
// program ("Instruction: Initialize"), or "".
func (inv *Invocation) Instruction() string {
	for _, msg := range inv.Messages {
		if name, ok := strings.CutPrefix(msg, "Instruction: "); ok {
			return name
		}
	}
	return ""
}

// Find returns the invocation at path, or nil.
func (inv *Invocation) Find(path InstructionPath) *Invocation {
	if inv.Path.Equals(path) {
		return inv
	}
	for _, inner := range inv.Inner {
		if found := inner.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Build folds a transaction's logs into its top-level invocations. Lines that
// do not fit the invoke/return structure are an error.
func (p *LogParser) Build(logMessages []string) ([]*Invocation, error) {
	var roots []*Invocation
	var stack []*Invocation

	for i, msg := range logMessages {
		parsed := p.Parse(msg)

		switch parsed.Type {
		case LogTypeInvoke:
			if parsed.StackHeight != len(stack)+1 {
				return nil, fmt.Errorf("line %d: invoke at depth %d inside depth %d", i, parsed.StackHeight, len(stack))
			}
			inv := &Invocation{ProgramID: parsed.ProgramID}
			if len(stack) == 0 {
				inv.Path = InstructionPath{uint8(len(roots))}
				roots = append(roots, inv)
			} else {
				parent := stack[len(stack)-1]
				inv.Path = append(append(InstructionPath{}, parent.Path...), uint8(len(parent.Inner)))
				parent.Inner = append(parent.Inner, inv)
			}
			stack = append(stack, inv)

		case LogTypeSuccess, LogTypeFailed:
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: return without invoke", i)
			}
			top := stack[len(stack)-1]
			if top.ProgramID != parsed.ProgramID {
				return nil, fmt.Errorf("line %d: %s returned while %s was running", i, parsed.ProgramID, top.ProgramID)
			}
			top.Completed = true
			top.Succeeded = parsed.Type == LogTypeSuccess
			top.Reason = parsed.Reason
			stack = stack[:len(stack)-1]

		case LogTypeLog:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Messages = append(top.Messages, parsed.Message)
			}

		case LogTypeData:
			if len(stack) > 0 && parsed.Data != nil {
				top := stack[len(stack)-1]
				top.Data = append(top.Data, parsed.Data)
			}
		}
	}
	return roots, nil
}
