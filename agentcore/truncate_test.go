package agentcore

import (
	"strings"
	"testing"
)

func TestTruncateMiddle(t *testing.T) {
	if got := TruncateMiddle("short", 100); got != "short" {
		t.Errorf("short input changed: %q", got)
	}

	long := strings.Repeat("x", 500)
	got := TruncateMiddle(long, 100)
	if !strings.Contains(got, "400 chars omitted") {
		t.Errorf("missing omission marker: %q", got)
	}
	if !strings.HasPrefix(got, "xxxxx") || !strings.HasSuffix(got, "xxxxx") {
		t.Error("head and tail must survive truncation")
	}
}

func TestSummarizeObservationBounded(t *testing.T) {
	long := strings.Repeat("y", 10000)
	got := SummarizeObservation(long)
	if len(got) > DefaultSummaryLimit+64 {
		t.Errorf("summary length %d exceeds bound", len(got))
	}
}
