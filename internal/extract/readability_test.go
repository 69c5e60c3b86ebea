package extract

import "testing"

func TestReadability_EmptyTextReturnsZeroRecord(t *testing.T) {
	r := Readability("   ")
	if r.FleschReadingEase != nil {
		t.Fatalf("expected nil flesch score for empty text, got %v", *r.FleschReadingEase)
	}
	if r.WordCount != 0 || r.SentenceCount != 0 {
		t.Fatalf("expected zero counts for empty text, got words=%d sentences=%d", r.WordCount, r.SentenceCount)
	}
	if r.Error != nil {
		t.Fatalf("empty text is not an error, got %q", *r.Error)
	}
}

func TestReadability_CountsSimpleText(t *testing.T) {
	r := Readability("The cat sat on the mat. The dog ran fast.")
	if r.WordCount != 10 {
		t.Fatalf("expected 10 words, got %d", r.WordCount)
	}
	if r.SentenceCount != 2 {
		t.Fatalf("expected 2 sentences, got %d", r.SentenceCount)
	}
	if r.AvgSentenceLength != 5.0 {
		t.Fatalf("expected avg sentence length 5.0, got %v", r.AvgSentenceLength)
	}
	if r.FleschReadingEase == nil {
		t.Fatalf("expected a flesch score for non-empty text")
	}
	// Ten monosyllabic words in short sentences score near the top of
	// the scale.
	if *r.FleschReadingEase < 90 {
		t.Fatalf("expected very easy text to score above 90, got %v", *r.FleschReadingEase)
	}
	if r.DifficultWordsCount != 0 {
		t.Fatalf("expected no difficult words, got %d", r.DifficultWordsCount)
	}
}

func TestReadability_ReadingTimeUses225WPM(t *testing.T) {
	words := ""
	for i := 0; i < 450; i++ {
		words += "word "
	}
	r := Readability(words)
	if r.ReadingTimeMinutes != 2.0 {
		t.Fatalf("expected 2.0 minutes for 450 words, got %v", r.ReadingTimeMinutes)
	}
}

func TestCountSyllables(t *testing.T) {
	cases := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"hello", 2},
		{"beautiful", 3},
		{"queue", 1},
		{"rhythm", 1},
		{"table", 2},
		{"made", 1},
		{"xyz", 1},
	}
	for _, c := range cases {
		if got := countSyllables(c.word); got != c.want {
			t.Errorf("countSyllables(%q) = %d, want %d", c.word, got, c.want)
		}
	}
}

func TestCountSentences_IgnoresTrailingPunctuation(t *testing.T) {
	if got := countSentences("One. Two! Three?"); got != 3 {
		t.Fatalf("expected 3 sentences, got %d", got)
	}
	if got := countSentences("No terminator"); got != 1 {
		t.Fatalf("expected 1 sentence without terminator, got %d", got)
	}
}
