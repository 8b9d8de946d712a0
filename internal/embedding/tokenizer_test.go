package embedding

import "testing"

func TestWordTokenizerShape(t *testing.T) {
	tok := &WordTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tok.Tokenize("hello world", 8)
	if len(inputIDs) != 8 || len(attentionMask) != 8 || len(tokenTypeIDs) != 8 {
		t.Fatalf("lengths: got %d/%d/%d, want 8", len(inputIDs), len(attentionMask), len(tokenTypeIDs))
	}
	if inputIDs[0] != tokenCLS {
		t.Errorf("first token: got %d, want CLS %d", inputIDs[0], tokenCLS)
	}
	// CLS + 2 words + SEP attended, rest padding.
	var attended int64
	for _, m := range attentionMask {
		attended += m
	}
	if attended != 4 {
		t.Errorf("attended tokens: got %d, want 4", attended)
	}
	if inputIDs[3] != tokenSEP {
		t.Errorf("token after words: got %d, want SEP %d", inputIDs[3], tokenSEP)
	}
	for _, id := range tokenTypeIDs {
		if id != 0 {
			t.Error("token type ids must be zero for single-segment input")
		}
	}
}

func TestWordTokenizerTruncates(t *testing.T) {
	tok := &WordTokenizer{}
	inputIDs, attentionMask, _ := tok.Tokenize("one two three four five six seven eight", 4)
	if len(inputIDs) != 4 {
		t.Fatalf("length: got %d, want 4", len(inputIDs))
	}
	// CLS + 2 words + SEP fills the budget.
	var attended int64
	for _, m := range attentionMask {
		attended += m
	}
	if attended != 4 {
		t.Errorf("attended tokens: got %d, want 4", attended)
	}
}

func TestWordTokenizerStable(t *testing.T) {
	tok := &WordTokenizer{}
	a, _, _ := tok.Tokenize("alpha beta", 8)
	b, _, _ := tok.Tokenize("alpha beta", 8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tokenization not stable at %d", i)
		}
	}
}
