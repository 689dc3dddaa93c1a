package mapf

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSanitizeJsonArrayLineBreaks(t *testing.T) {
	inst := ParallelLinesInstance(2)
	raw, err := json.MarshalIndent(inst, "", "\t")
	if err != nil {
		t.Fatal(err)
	}
	flat := SanitizeJsonArrayLineBreaks(string(raw))
	if strings.Contains(flat, "1,\n") {
		t.Fatal("numeric arrays must be collapsed onto one line")
	}
	var back MAPFInstance
	if err := json.Unmarshal([]byte(flat), &back); err != nil {
		t.Fatalf("sanitized output is no longer valid JSON: %s", err)
	}
	if back.VertexCount != inst.VertexCount || len(back.Edges) != len(inst.Edges) {
		t.Fatal("sanitizing changed the instance content")
	}
}
