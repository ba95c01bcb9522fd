package reviews

import (
	"fmt"
)

// PerspectiveConfig pairs a named analysis focus with its prompt text and
// the severities it is allowed to report. Loaded once at startup and shared
// read-only by every concurrent invocation.
type PerspectiveConfig struct {
	Name         string
	Instructions string
	FocusAreas   []string
	Severities   map[Severity]bool
}

// Allows reports whether sev is part of this perspective's vocabulary.
func (p PerspectiveConfig) Allows(sev Severity) bool {
	return p.Severities[sev]
}

// PerspectiveSet is an immutable, ordered registry of perspectives.
type PerspectiveSet struct {
	byName map[string]PerspectiveConfig
	order  []string
}

func NewPerspectiveSet(configs ...PerspectiveConfig) *PerspectiveSet {
	s := &PerspectiveSet{byName: make(map[string]PerspectiveConfig, len(configs))}
	for _, p := range configs {
		if _, dup := s.byName[p.Name]; dup {
			continue
		}
		s.byName[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	return s
}

// Get lookup by name
func (s *PerspectiveSet) Get(name string) (PerspectiveConfig, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// Names returns perspective names in registration order.
func (s *PerspectiveSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Resolve maps caller-supplied names to configs, preserving order. Empty
// input selects every registered perspective. Unknown names are a
// validation error and nothing is dispatched.
func (s *PerspectiveSet) Resolve(names []string) ([]PerspectiveConfig, error) {
	if len(names) == 0 {
		names = s.order
	}
	out := make([]PerspectiveConfig, 0, len(names))
	for _, n := range names {
		p, ok := s.byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown perspective %q", ErrValidation, n)
		}
		out = append(out, p)
	}
	return out, nil
}

func defaultSeverities() map[Severity]bool {
	return map[Severity]bool{
		SeverityCritical: true,
		SeverityHigh:     true,
		SeverityMedium:   true,
		SeverityLow:      true,
		SeverityInfo:     true,
	}
}

// BuiltinPerspectives returns the three stock review perspectives.
func BuiltinPerspectives() *PerspectiveSet {
	return NewPerspectiveSet(
		PerspectiveConfig{
			Name: "security",
			Instructions: `You are a security expert reviewing code for vulnerabilities.
Your mission is to identify security issues like:
- SQL injection vulnerabilities
- XSS (Cross-Site Scripting) risks
- Authentication/authorization flaws
- Insecure data handling
- Hardcoded secrets or credentials
- Unsafe deserialization
- Path traversal vulnerabilities
- Insecure cryptography usage

Be thorough but practical. Focus on real security risks, not theoretical ones.
Provide clear explanations and actionable fixes.`,
			FocusAreas: []string{
				"SQL Injection and NoSQL Injection",
				"Cross-Site Scripting (XSS)",
				"Authentication & Authorization",
				"Sensitive Data Exposure",
				"Security Misconfiguration",
				"Broken Access Control",
				"Cryptographic Issues",
				"Input Validation",
			},
			Severities: defaultSeverities(),
		},
		PerspectiveConfig{
			Name: "performance",
			Instructions: `You are a performance optimization expert reviewing code.
Your mission is to identify performance issues like:
- Inefficient algorithms (O(n^2) where O(n) possible)
- N+1 query problems
- Memory leaks
- Unnecessary loops or iterations
- Inefficient data structures
- Missing caching opportunities
- Blocking I/O operations
- Resource-intensive operations in loops

Be practical and focus on issues that will have measurable impact.
Suggest specific optimizations with expected improvements.`,
			FocusAreas: []string{
				"Algorithm Efficiency",
				"Database Query Optimization",
				"N+1 Query Detection",
				"Memory Management",
				"Caching Opportunities",
				"Loop Optimization",
				"Data Structure Selection",
				"I/O Operations",
			},
			Severities: defaultSeverities(),
		},
		PerspectiveConfig{
			Name: "quality",
			Instructions: `You are a code quality expert reviewing code for maintainability.
Your mission is to identify quality issues like:
- Code duplication (DRY violations)
- Complex functions (high cyclomatic complexity)
- Poor naming conventions
- Missing error handling
- Lack of documentation
- Magic numbers and hardcoded values
- Tight coupling
- Poor separation of concerns

Focus on issues that affect long-term maintainability and team productivity.
Suggest refactoring approaches that improve code clarity.`,
			FocusAreas: []string{
				"Code Duplication (DRY)",
				"Function Complexity",
				"Naming Conventions",
				"Error Handling",
				"Documentation",
				"Magic Numbers",
				"Single Responsibility",
				"Code Readability",
			},
			Severities: defaultSeverities(),
		},
	)
}
