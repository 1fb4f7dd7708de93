// Package errors provides coded, actionable error messages for the
// slicestore CLI and configuration layer.
//
// Each error has a unique code (e.g., "S001") that maps to a category, a
// short message and a longer explanation. Errors raised by the store core are
// translated with FromStore so the CLI and the HTTP API report them with the
// same codes and hints.
//
// # Error Categories
//
//   - config: slicestore.json problems
//   - cli: bad command-line input or unreadable files
//   - action: actions rejected before they reach a reducer
//   - reducer: reducer and routing failures
//   - server: HTTP/WebSocket front end failures
//
// # Usage
//
//	err := errors.New("S002").
//	    WithPath("slicestore.json").
//	    WithSuggestion(`Use "text" or "json" for log.format`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S002: Invalid configuration value
//	//
//	//   slicestore.json
//	//
//	//   Hint: Use "text" or "json" for log.format
package errors
