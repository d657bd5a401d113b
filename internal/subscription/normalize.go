package subscription

import "strings"

// PartitionWidth is the fixed width (in runes) of the index partition key.
const PartitionWidth = 8

// Normalize folds a title or substring into the canonical form used for
// matching: lowercase, trimmed, with internal whitespace runs collapsed to a
// single space. No transliteration or punctuation stripping is performed.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// PartitionKey returns the bucket key for a substring: the first
// PartitionWidth runes of its normalized form, or the whole normalized
// substring when shorter.
func PartitionKey(substring string) string {
	runes := []rune(Normalize(substring))
	if len(runes) > PartitionWidth {
		runes = runes[:PartitionWidth]
	}
	return string(runes)
}
