package indexer

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(4, 1)
	words := make([]string, 10)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks := c.Chunk("doc", strings.Join(words, " "))

	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	for i, ch := range chunks {
		want := fmt.Sprintf("doc_chunk_%d", i)
		if ch.ID != want {
			t.Errorf("chunk %d id = %q, want %q", i, ch.ID, want)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d index = %d", i, ch.ChunkIndex)
		}
	}
	// Step is size-overlap = 3, so chunk 1 starts at w3 and repeats w3 from
	// the tail of chunk 0's window.
	if !strings.HasPrefix(chunks[1].Content, "w3") {
		t.Errorf("chunk 1 = %q", chunks[1].Content)
	}
	if !strings.HasSuffix(chunks[0].Content, "w3") {
		t.Errorf("chunk 0 = %q", chunks[0].Content)
	}
}

func TestChunker_ReconstructsInput(t *testing.T) {
	const size, overlap = 5, 2
	c := NewChunker(size, overlap)
	words := make([]string, 23)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	input := strings.Join(words, " ")
	chunks := c.Chunk("doc", input)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want several", len(chunks))
	}

	// Consecutive chunks overlap by exactly `overlap` words, so taking the
	// first size-overlap words of every chunk but the last, then the whole
	// last chunk, rebuilds the input.
	step := size - overlap
	var rebuilt []string
	for i, ch := range chunks {
		chunkWords := strings.Fields(ch.Content)
		if i == len(chunks)-1 {
			rebuilt = append(rebuilt, chunkWords...)
			break
		}
		if len(chunkWords) < step {
			t.Fatalf("chunk %d has %d words, want at least %d", i, len(chunkWords), step)
		}
		rebuilt = append(rebuilt, chunkWords[:step]...)
	}
	if got := strings.Join(rebuilt, " "); got != input {
		t.Errorf("reconstruction mismatch:\ngot  %q\nwant %q", got, input)
	}
}

func TestChunker_CountMonotonicInLength(t *testing.T) {
	c := NewChunker(4, 1)
	prev := 0
	for n := 1; n <= 40; n++ {
		words := make([]string, n)
		for i := range words {
			words[i] = fmt.Sprintf("w%d", i)
		}
		count := len(c.Chunk("doc", strings.Join(words, " ")))
		if count < prev {
			t.Fatalf("chunk count dropped from %d to %d at %d words", prev, count, n)
		}
		prev = count
	}
	if prev < 2 {
		t.Fatalf("final count = %d, growth never split the document", prev)
	}
}

func TestChunker_Deterministic(t *testing.T) {
	c := NewChunker(3, 0)
	a := c.Chunk("d", "one two three four five")
	b := c.Chunk("d", "one two three four five")
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunker_Empty(t *testing.T) {
	c := NewChunker(4, 1)
	if got := c.Chunk("d", "   \n\t "); got != nil {
		t.Errorf("expected nil for blank text, got %d chunks", len(got))
	}
}

func TestChunker_OverlapGEChunkSize(t *testing.T) {
	// Degenerate config must still terminate, stepping one word at a time.
	c := NewChunker(2, 5)
	chunks := c.Chunk("d", "a b c d")
	if len(chunks) != 3 {
		t.Errorf("chunks = %d, want 3", len(chunks))
	}
}

func TestPreprocess(t *testing.T) {
	got := Preprocess("  hello\t\tworld\n\nagain  ")
	if got != "hello world again" {
		t.Errorf("Preprocess = %q", got)
	}
}
