package errors

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested operator action for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	PathNotFound: {
		{
			Type:        RunCommand,
			Command:     "ls ${path}",
			Safe:        true,
			Description: "Verify the path exists and is readable",
		},
	},
	AlreadyMonitoring: {
		{
			Type:        RunCommand,
			Command:     "triage watch --help",
			Safe:        true,
			Description: "Each path keeps a single watch session; stop the running one before starting another",
		},
	},
	MonitorNotFound: {
		{
			Type:        RunCommand,
			Command:     "triage watch ${path}",
			Safe:        true,
			Description: "Stopped sessions are not reusable; start a fresh watch session",
		},
	},
	FormatUnsupported: {
		{
			Type:        RunCommand,
			Command:     "triage scan --help",
			Safe:        true,
			Description: "Show the supported report formats",
		},
	},
	ValidationFailed: {
		{
			Type:        RunCommand,
			Command:     "triage doctor",
			Safe:        true,
			Description: "Check the configuration and environment",
		},
	},
	StorageFailure: {
		{
			Type:        RunCommand,
			Command:     "triage doctor",
			Safe:        true,
			Description: "Check the metrics database file and permissions",
		},
	},
}

// ActionsFor returns suggested fixes for an error code
func ActionsFor(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
