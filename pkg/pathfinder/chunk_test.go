package pathfinder

import "testing"

func TestChunkComponentsZeroMeansSingleChunk(t *testing.T) {
	chunks := ChunkComponents([]string{"a", "b", "c"}, 0)
	if len(chunks) != 1 || len(chunks[0]) != 3 {
		t.Fatalf("ChunkComponents(0) = %v, want one chunk of 3", chunks)
	}
}

func TestChunkComponentsSplitsEvenly(t *testing.T) {
	chunks := ChunkComponents([]string{"a", "b", "c", "d"}, 2)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 2 || len(chunks[1]) != 2 {
		t.Errorf("chunks = %v, want two chunks of 2", chunks)
	}
}

func TestChunkComponentsSplitsUnevenly(t *testing.T) {
	chunks := ChunkComponents([]string{"a", "b", "c"}, 2)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 2 || len(chunks[1]) != 1 {
		t.Errorf("chunks = %v, want [2,1]", chunks)
	}
}

func TestChunkComponentsEmpty(t *testing.T) {
	if chunks := ChunkComponents(nil, 2); chunks != nil {
		t.Errorf("ChunkComponents(nil) = %v, want nil", chunks)
	}
}
