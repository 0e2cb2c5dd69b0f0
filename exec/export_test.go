package exec

import "encoding/json"

// ParseArgsForTest exposes parseArgs for external tests, returning the
// decoded fields.
func ParseArgsForTest(data json.RawMessage) (command string, timeoutSec int, err error) {
	a, err := parseArgs(data)
	return a.Command, a.TimeoutSec, err
}
