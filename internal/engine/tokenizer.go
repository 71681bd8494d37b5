package engine

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Encoding is the tokenizer output for one text. Both slices have equal length.
type Encoding struct {
	IDs           []int64
	AttentionMask []int64
}

// Tokenizer converts text to token ids.
type Tokenizer interface {
	Encode(text string) (Encoding, error)
}

const (
	wordClsID        = 101
	wordSepID        = 102
	wordReservedIDs  = 1000
	defaultVocabSize = 30522
)

// WordTokenizer lowercases text, splits it on anything that is not a letter
// or digit and hashes each word into a fixed vocabulary.
type WordTokenizer struct {
	// VocabSize bounds the hashed ids; zero selects 30522.
	VocabSize int
	// AddSpecial wraps the sequence in [CLS] ... [SEP].
	AddSpecial bool
}

// Encode implements Tokenizer. Text without any word yields an empty encoding
// unless AddSpecial is set.
func (t WordTokenizer) Encode(text string) (Encoding, error) {
	vocab := t.VocabSize
	if vocab <= wordReservedIDs {
		vocab = defaultVocabSize
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	ids := make([]int64, 0, len(words)+2)
	if t.AddSpecial {
		ids = append(ids, wordClsID)
	}
	for _, w := range words {
		h := xxhash.Sum64String(w)
		ids = append(ids, wordReservedIDs+int64(h%uint64(vocab-wordReservedIDs)))
	}
	if t.AddSpecial {
		ids = append(ids, wordSepID)
	}
	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return Encoding{IDs: ids, AttentionMask: mask}, nil
}
