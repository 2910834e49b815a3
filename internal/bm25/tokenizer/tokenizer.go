// Package tokenizer provides the injectable tokenize(string) -> []string
// function the RRF stage's BM25 ranking depends on (spec §9 "Injectable
// tokenizer"). The default is a CJK/English hybrid segmenter; a whitespace
// fallback is always available so the core never hard-depends on the
// heavyweight segmenter being present.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/yanyiwu/gojieba"
)

// Func is the injectable tokenize(string) -> []string contract.
type Func func(text string) []string

// Whitespace is the required fallback tokenizer (spec §9).
func Whitespace(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// jiebaTokenizer wraps gojieba, the CJK/English hybrid segmenter the
// teacher's go.mod pulls in (github.com/yanyiwu/gojieba), lazily
// initialized and shared across calls since gojieba.NewJieba loads a
// multi-megabyte dictionary.
type jiebaTokenizer struct {
	once sync.Once
	jb   *gojieba.Jieba
}

var defaultJieba = &jiebaTokenizer{}

func (j *jiebaTokenizer) instance() *gojieba.Jieba {
	j.once.Do(func() { j.jb = gojieba.NewJieba() })
	return j.jb
}

// Jieba segments mixed Chinese/English text using gojieba's search-mode
// cut, which favors recall (more, shorter tokens) — appropriate for BM25
// candidate matching rather than display segmentation.
func Jieba(text string) []string {
	words := defaultJieba.instance().CutForSearch(text, true)
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Default returns the hybrid tokenizer, falling back to Whitespace if the
// CJK segmenter panics on unexpected input (defensive: gojieba's cgo layer
// is outside the core's control).
func Default() Func {
	return func(text string) (tokens []string) {
		defer func() {
			if recover() != nil {
				tokens = Whitespace(text)
			}
		}()
		tokens = Jieba(text)
		if len(tokens) == 0 {
			return Whitespace(text)
		}
		return tokens
	}
}
