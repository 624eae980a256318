// Package errors provides coded, actionable errors for the idom command
// and its configuration.
//
// Each error has a code (e.g. "E101") registered with a category, a short
// message and a longer explanation. Call sites add what they know:
//
//	err := errors.New("E102").
//	    WithLocation("idom.yaml", 4, 0).
//	    WithSuggestion("Use a duration such as 30s or 5m")
//
//	fmt.Fprintln(os.Stderr, err.Format())
//	// ERROR E102: Invalid duration
//	//
//	//   idom.yaml:4
//	//
//	//   Hint: Use a duration such as 30s or 5m
package errors
