package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (S001-S009)
	// ============================================

	"S001": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "slicestore.json could not be parsed as JSON.",
		Suggestion: "Check the file for trailing commas or unquoted keys.",
	},
	"S002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A value in slicestore.json is outside its allowed range.",
	},
	"S003": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be written",
	},
	"S004": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'slicestore init' to write a default slicestore.json",
	},

	// ============================================
	// CLI Errors (S010-S019)
	// ============================================

	"S010": {
		Category: CategoryCLI,
		Message:  "Action file could not be read",
	},
	"S011": {
		Category:   CategoryCLI,
		Message:    "Invalid action line",
		Detail:     "Each line of an action file must be one JSON object with a type and a target.",
		Suggestion: `Write one action per line, e.g. {"type":"ADD","target":"toDoList","payload":{"id":"item-1","value":"milk"}}`,
	},

	// ============================================
	// Server Errors (S020-S029)
	// ============================================

	"S020": {
		Category: CategoryServer,
		Message:  "Server failed",
	},
	"S021": {
		Category: CategoryServer,
		Message:  "Request body could not be read",
	},

	// ============================================
	// Store Errors (S030-S039)
	// ============================================

	"S030": {
		Category:   CategoryAction,
		Message:    "Action is not an object",
		Suggestion: `Send a JSON object such as {"type":"ADD","target":"toDoList"}.`,
	},
	"S031": {
		Category:   CategoryAction,
		Message:    "Action has no type",
		Suggestion: "Every action needs a non-empty type.",
	},
	"S032": {
		Category:   CategoryAction,
		Message:    "Action has no target",
		Suggestion: `Set target to a slice name, or to "*" to send the action to every slice.`,
	},
	"S033": {
		Category:   CategoryAction,
		Message:    "Store is busy",
		Detail:     "Another dispatch is in flight. Dispatches are rejected, not queued.",
		Suggestion: "Dispatch again once the current dispatch has returned.",
	},
	"S034": {
		Category:   CategoryReducer,
		Message:    "Malformed slice reducer",
		Detail:     "A slice reducer returned no state for the init action or for an unknown action type.",
		Suggestion: "Add a default case that returns the previous state.",
	},
	"S035": {
		Category:   CategoryReducer,
		Message:    "Target not found",
		Suggestion: "Target one of the registered slices.",
	},
	"S036": {
		Category: CategoryReducer,
		Message:  "Reducer returned undefined state",
	},
	"S037": {
		Category: CategoryReducer,
		Message:  "Slice state has the wrong type",
	},
	"S038": {
		Category: CategoryReducer,
		Message:  "Store could not be created",
	},
	"S039": {
		Category: CategoryReducer,
		Message:  "Reducer failed",
	},
}
