package kb

// Builtin returns the compiled-in catalog. Every analyzer category has at
// least one pattern with a linked solution so resolution never starts from
// an empty knowledge base.
func Builtin() *Catalog {
	c := newCatalog()

	for _, p := range builtinPatterns {
		c.patterns[p.ID] = p
	}
	for _, s := range builtinSolutions {
		c.solutions[s.ID] = s
	}
	for _, b := range builtinPractices {
		c.practices[b.ID] = b
	}

	return c
}

var builtinPatterns = []Pattern{
	{
		ID:          "syntax-unbalanced",
		Title:       "Unbalanced brackets or braces",
		Category:    "syntax",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"bracket", "brace", "paren", "unclosed", "unexpected", "missing"},
		Description: "A delimiter was opened and never closed, or closed without an opener. Everything after the mismatch usually fails to parse.",
	},
	{
		ID:          "syntax-unterminated-string",
		Title:       "Unterminated string literal",
		Category:    "syntax",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"string", "quote", "unterminated", "literal"},
		Description: "A string literal is missing its closing quote, swallowing the rest of the line or file.",
	},
	{
		ID:          "syntax-marker",
		Title:       "Unresolved work marker",
		Category:    "syntax",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"todo", "fixme", "xxx", "marker", "unresolved"},
		Description: "A TODO/FIXME/XXX marker flags work that was never finished.",
	},
	{
		ID:          "runtime-nil-access",
		Title:       "Nil or undefined member access",
		Category:    "runtime-risk",
		Languages:   []string{"javascript", "typescript", "go"},
		Keywords:    []string{"nil", "null", "undefined", "panic", "dereference"},
		Description: "A value that can be nil/undefined is used without a guard.",
	},
	{
		ID:          "runtime-broad-catch",
		Title:       "Overbroad exception handling",
		Category:    "runtime-risk",
		Languages:   []string{"python", "javascript", "typescript"},
		Keywords:    []string{"except", "exception", "catch", "swallow", "bare"},
		Description: "A handler catches every error, hiding real failures and corrupting state silently.",
	},
	{
		ID:          "runtime-dynamic-eval",
		Title:       "Dynamic code execution",
		Category:    "runtime-risk",
		Languages:   []string{"python", "javascript", "typescript"},
		Keywords:    []string{"eval", "exec", "injection", "dynamic"},
		Description: "eval and friends execute data as code, failing unpredictably and opening injection paths.",
	},
	{
		ID:          "config-parse-failure",
		Title:       "Configuration file does not parse",
		Category:    "configuration",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"json", "yaml", "toml", "parse", "invalid", "config"},
		Description: "A configuration file is syntactically invalid and will be rejected or silently ignored at startup.",
	},
	{
		ID:          "config-duplicate-key",
		Title:       "Duplicate configuration key",
		Category:    "configuration",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"duplicate", "key", "override", "shadow"},
		Description: "The same key appears twice; most parsers keep the last value and drop the first without warning.",
	},
	{
		ID:          "analyzer-crash",
		Title:       "Analyzer crashed during scan",
		Category:    "analyzer-failure",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"panic", "crash", "analyzer", "internal"},
		Description: "An analyzer failed on this input. Results for the category it covers are incomplete.",
	},
	{
		ID:          "dependency-mismatch",
		Title:       "Missing or mismatched dependency",
		Category:    "dependency",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"import", "module", "version", "missing", "dependency"},
		Description: "An import cannot be satisfied by the declared dependency set.",
	},
	{
		ID:          "performance-hot-loop",
		Title:       "Expensive work inside a hot loop",
		Category:    "performance",
		Languages:   []string{LanguageAny},
		Keywords:    []string{"loop", "allocation", "slow", "quadratic", "repeated"},
		Description: "Allocation, I/O, or lookups repeated per iteration dominate runtime as input grows.",
	},
}

var builtinSolutions = []Solution{
	{
		ID:        "fix-unbalanced-delimiters",
		PatternID: "syntax-unbalanced",
		Approach:  "rebalance delimiters from the reported position",
		Steps: []string{
			"Open the file at the reported line and column.",
			"Match each opener against its closer outward from the error.",
			"Re-indent the block; misindentation usually exposes the stray delimiter.",
		},
		ValidationSteps: []string{
			"Re-run the scan and confirm the syntax record is gone.",
			"Run the project's own build or parser over the file.",
		},
		Confidence: 0.9,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "fix-unterminated-string",
		PatternID: "syntax-unterminated-string",
		Approach:  "close or escape the string literal",
		Steps: []string{
			"Find the opening quote on the reported line.",
			"Close the literal, or escape embedded quotes of the same kind.",
		},
		ValidationSteps: []string{
			"Re-run the scan and confirm the record is gone.",
		},
		Confidence: 0.9,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "resolve-work-marker",
		PatternID: "syntax-marker",
		Approach:  "finish or ticket the marked work",
		Steps: []string{
			"Read the marker comment and decide: do it now or track it.",
			"Either implement the missing piece or move it to the issue tracker with context.",
			"Delete the marker line once captured.",
		},
		ValidationSteps: []string{
			"Re-run the scan and confirm no marker record remains for the file.",
		},
		Confidence: 0.7,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "guard-nil-access-js",
		PatternID: "runtime-nil-access",
		Approach:  "guard the access with optional chaining",
		Steps: []string{
			"Replace a.b.c chains on possibly-undefined values with a?.b?.c.",
			"Provide an explicit default with ?? where a value is required.",
		},
		ValidationSteps: []string{
			"Add a test passing undefined through the guarded path.",
			"Re-run the scan.",
		},
		Confidence: 0.8,
		Languages:  []string{"javascript", "typescript"},
	},
	{
		ID:        "guard-nil-access-go",
		PatternID: "runtime-nil-access",
		Approach:  "check the pointer before dereferencing",
		Steps: []string{
			"Return early when the receiver or argument is nil.",
			"Prefer value types or constructor functions that cannot produce nil.",
		},
		ValidationSteps: []string{
			"Add a test calling the function with a nil argument.",
			"Re-run the scan.",
		},
		Confidence: 0.8,
		Languages:  []string{"go"},
	},
	{
		ID:        "narrow-exception-handler",
		PatternID: "runtime-broad-catch",
		Approach:  "catch the specific exception types you can handle",
		Steps: []string{
			"List the exceptions the guarded block can actually raise.",
			"Replace the bare handler with those types.",
			"Let everything else propagate; log at the boundary instead.",
		},
		ValidationSteps: []string{
			"Add a test asserting unexpected exceptions propagate.",
			"Re-run the scan.",
		},
		Confidence: 0.85,
		Languages:  []string{"python"},
	},
	{
		ID:        "remove-dynamic-eval",
		PatternID: "runtime-dynamic-eval",
		Approach:  "replace eval with an explicit dispatch",
		Steps: []string{
			"Enumerate the inputs eval currently receives.",
			"Replace with a lookup table, JSON parsing, or a small parser for the actual grammar.",
		},
		ValidationSteps: []string{
			"Add tests covering each enumerated input.",
			"Re-run the scan.",
		},
		Confidence: 0.75,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "revalidate-config",
		PatternID: "config-parse-failure",
		Approach:  "fix the reported position and validate the format",
		Steps: []string{
			"Open the file at the reported line.",
			"Fix the syntax the parser complained about.",
			"Run the file through a format validator before committing.",
		},
		ValidationSteps: []string{
			"Re-run the scan and confirm the configuration record is gone.",
			"Start the consuming service against the fixed file.",
		},
		Confidence: 0.9,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "deduplicate-config-key",
		PatternID: "config-duplicate-key",
		Approach:  "keep one definition per key",
		Steps: []string{
			"Decide which of the duplicate values is intended.",
			"Delete the others; merge nested sections if both carry data.",
		},
		ValidationSteps: []string{
			"Re-run the scan and confirm the duplicate-key record is gone.",
		},
		Confidence: 0.85,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "rerun-failed-analyzer",
		PatternID: "analyzer-crash",
		Approach:  "re-run with the analyzer isolated",
		Steps: []string{
			"Re-run the scan with only the failed analyzer enabled to reproduce.",
			"Shrink the input tree until the failing file is isolated.",
			"Report the file and analyzer pair upstream.",
		},
		ValidationSteps: []string{
			"Confirm the remaining analyzers report the same results without the failure.",
		},
		Confidence: 0.5,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "pin-dependency",
		PatternID: "dependency-mismatch",
		Approach:  "pin and reinstall the dependency set",
		Steps: []string{
			"Add the missing module to the manifest with an explicit version.",
			"Regenerate the lockfile and reinstall.",
		},
		ValidationSteps: []string{
			"Build the project from a clean checkout.",
		},
		Confidence: 0.7,
		Languages:  []string{LanguageAny},
	},
	{
		ID:        "profile-hot-loop",
		PatternID: "performance-hot-loop",
		Approach:  "measure first, then hoist invariant work",
		Steps: []string{
			"Profile the workload to confirm the loop dominates.",
			"Hoist allocations and lookups out of the loop body.",
			"Batch I/O performed per iteration.",
		},
		ValidationSteps: []string{
			"Re-run the profile and compare before/after timings.",
		},
		Confidence: 0.6,
		Languages:  []string{LanguageAny},
	},
}

var builtinPractices = []BestPractice{
	{
		ID:        "format-on-save",
		Category:  "syntax",
		Title:     "Format and parse on save",
		Rationale: "Editor-integrated formatting surfaces unbalanced delimiters the moment they appear, not at review time.",
	},
	{
		ID:        "lint-in-ci",
		Category:  "syntax",
		Title:     "Run linters in CI",
		Rationale: "A parse gate in CI keeps broken files from reaching the default branch.",
	},
	{
		ID:        "error-handling-review",
		Category:  "runtime-risk",
		Title:     "Review error paths explicitly",
		Rationale: "Most runtime failures live on the path nobody tested. Walk each handler and ask what it hides.",
	},
	{
		ID:        "config-schema-validation",
		Category:  "configuration",
		Title:     "Validate configuration against a schema",
		Rationale: "Schema validation turns silent misconfiguration into a loud startup failure.",
	},
	{
		ID:        "config-review-on-deploy",
		Category:  "configuration",
		Title:     "Diff configuration on every deploy",
		Rationale: "Most production incidents trace back to a config change nobody looked at.",
	},
	{
		ID:        "isolate-analyzer-input",
		Category:  "analyzer-failure",
		Title:     "Keep minimal reproductions",
		Rationale: "A failing analyzer fixed without a reproduction will fail again on the next odd input.",
	},
	{
		ID:        "dependency-pinning",
		Category:  "dependency",
		Title:     "Pin dependencies and commit the lockfile",
		Rationale: "Unpinned versions make builds irreproducible and break at the worst time.",
	},
	{
		ID:        "performance-budget",
		Category:  "performance",
		Title:     "Set a performance budget per endpoint",
		Rationale: "A budget turns slow creep into a reviewable regression instead of a surprise.",
	},
}
