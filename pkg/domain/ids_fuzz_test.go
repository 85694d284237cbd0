package domain

import (
	"strings"
	"testing"
)

// FuzzParseAgentID checks that parsing never panics and that every accepted
// value satisfies the AgentID invariants.
func FuzzParseAgentID(f *testing.F) {
	f.Add("")
	f.Add("agent-7")
	f.Add("  padded  ")
	f.Add("two words")
	f.Add(strings.Repeat("a", 200))

	f.Fuzz(func(t *testing.T, input string) {
		agentID, err := ParseAgentID(input)
		if err != nil {
			return
		}
		s := agentID.String()
		if s == "" || len(s) > 128 {
			t.Errorf("accepted agent id with invalid length: %q", s)
		}
		if strings.ContainsAny(s, " \t\n") {
			t.Errorf("accepted agent id with whitespace: %q", s)
		}
	})
}

// FuzzParseRequestID checks that every accepted request id is canonical
// lowercase hex of digest length.
func FuzzParseRequestID(f *testing.F) {
	f.Add("")
	f.Add(strings.Repeat("ab", 32))
	f.Add(strings.Repeat("AB", 32))
	f.Add(strings.Repeat("g", 64))

	f.Fuzz(func(t *testing.T, input string) {
		requestID, err := ParseRequestID(input)
		if err != nil {
			return
		}
		s := requestID.String()
		if len(s) != 64 || s != strings.ToLower(s) {
			t.Errorf("accepted non-canonical request id: %q", s)
		}
	})
}
