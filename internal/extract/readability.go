package extract

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"geocrawl/internal/model"
)

var (
	sentenceSplitRE = regexp.MustCompile(`[.!?]+`)
	vowelGroupRE    = regexp.MustCompile(`[aeiouy]+`)
)

// Readability computes the classic readability formulas over plain
// text. Empty text returns the zero record, never an error.
func Readability(text string) model.Readability {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Readability{}
	}

	words := splitWords(text)
	wordCount := len(words)
	sentenceCount := countSentences(text)

	var syllables, letters, difficult, polysyllables int
	for _, w := range words {
		s := countSyllables(w)
		syllables += s
		letters += countLetters(w)
		if s >= 3 {
			polysyllables++
			difficult++
		}
	}

	if wordCount == 0 {
		return model.Readability{}
	}
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	wps := float64(wordCount) / float64(sentenceCount)
	spw := float64(syllables) / float64(wordCount)
	cpw := float64(letters) / float64(wordCount)

	flesch := round2(206.835 - 1.015*wps - 84.6*spw)
	kincaid := round2(0.39*wps + 11.8*spw - 15.59)
	fog := round2(0.4 * (wps + 100*float64(difficult)/float64(wordCount)))
	smog := round2(1.0430*math.Sqrt(float64(polysyllables)*30/float64(sentenceCount)) + 3.1291)
	ari := round2(4.71*cpw + 0.5*wps - 21.43)
	cli := round2(0.0588*(cpw*100) - 0.296*(float64(sentenceCount)/float64(wordCount)*100) - 15.8)

	difficultPct := float64(difficult) / float64(wordCount) * 100

	return model.Readability{
		FleschReadingEase:       &flesch,
		FleschKincaidGrade:      &kincaid,
		GunningFog:              &fog,
		SMOGIndex:               &smog,
		AutomatedReadabilityIdx: &ari,
		ColemanLiauIndex:        &cli,
		ReadingTimeMinutes:      round1(float64(wordCount) / 225),
		SentenceCount:           sentenceCount,
		AvgSentenceLength:       round1(wps),
		AvgWordLength:           round2(spw),
		SyllableCount:           syllables,
		DifficultWordsCount:     difficult,
		DifficultWordsPercent:   round1(difficultPct),
		WordCount:               wordCount,
	}
}

func splitWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := fields[:0]
	for _, f := range fields {
		if strings.ContainsFunc(f, unicode.IsLetter) || strings.ContainsFunc(f, unicode.IsDigit) {
			words = append(words, f)
		}
	}
	return words
}

func countSentences(text string) int {
	n := 0
	for _, part := range sentenceSplitRE.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// countSyllables approximates syllables as vowel groups with a silent
// trailing-e adjustment, minimum one per word.
func countSyllables(word string) int {
	w := strings.ToLower(word)
	groups := vowelGroupRE.FindAllString(w, -1)
	n := len(groups)
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && n > 1 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

func countLetters(word string) int {
	n := 0
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }
