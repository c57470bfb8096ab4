package protocol

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestParseLinePathfind(t *testing.T) {
	req, err := ParseLine("pathfind -s A_IN -d C_OUT -ch opt_1 opt_2 -bi")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if req.Command != CmdPathfind || req.Src != "A_IN" || req.Dst != "C_OUT" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Channels) != 2 || req.Channels[0] != "opt_1" || req.Channels[1] != "opt_2" {
		t.Errorf("Channels = %v, want [opt_1 opt_2]", req.Channels)
	}
	if !req.Bidi {
		t.Error("expected Bidi true")
	}
}

func TestParseLineReserveWithEroAndThreads(t *testing.T) {
	req, err := ParseLine("reserve -s A_IN -d C_OUT -ero B_MID -p 4 --wdmsa")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if len(req.Ero) != 1 || req.Ero[0] != "B_MID" {
		t.Errorf("Ero = %v, want [B_MID]", req.Ero)
	}
	if req.NumThreads != 4 {
		t.Errorf("NumThreads = %d, want 4", req.NumThreads)
	}
	if !req.WDMSA {
		t.Error("expected WDMSA true")
	}
}

func TestParseLineTerminateByID(t *testing.T) {
	req, err := ParseLine("terminate -g 3")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if req.ID != "3" {
		t.Errorf("ID = %q, want 3", req.ID)
	}
}

func TestParseLineEmptyIsError(t *testing.T) {
	if _, err := ParseLine("   "); err == nil {
		t.Fatal("expected error for empty line")
	}
}

func TestParseLineUnknownFlagIsError(t *testing.T) {
	if _, err := ParseLine("pathfind --bogus"); err == nil {
		t.Fatal("expected error for unrecognized flag")
	}
}

func TestWriteResponseThenReadResponseRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, []string{"line one", "line two"}); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(buf.String()))
	lines, err := ReadResponse(scanner)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if len(lines) != 2 || lines[0] != "line one" || lines[1] != "line two" {
		t.Errorf("lines = %v, want [line one, line two]", lines)
	}
}

func TestReadRequestEOF(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader(""))
	if _, err := ReadRequest(scanner); err == nil {
		t.Fatal("expected EOF error on empty input")
	}
}
