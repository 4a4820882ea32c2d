package keyboard

var sentenceDelimiters = []rune{'!', '.', '?'}

var wordDelimiters = []rune{
	'!', '.', '?', ',', ';', ':', '"', '\'', '(', ')', '[', ']', '{', '}',
	'/', '\\', '-', '…', '¡', '¿', '«', '»',
	' ', '\t', '\n', '\r',
}

var (
	sentenceDelimiterSet = runeSet(sentenceDelimiters)
	wordDelimiterSet     = runeSet(wordDelimiters)
)

func runeSet(rs []rune) map[rune]struct{} {
	m := make(map[rune]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

// SentenceDelimiters returns a copy of the characters that end a sentence.
func SentenceDelimiters() []rune {
	return append([]rune(nil), sentenceDelimiters...)
}

// WordDelimiters returns a copy of the characters that separate words.
func WordDelimiters() []rune {
	return append([]rune(nil), wordDelimiters...)
}

// IsSentenceDelimiter reports whether r ends a sentence. Whitespace never does.
func IsSentenceDelimiter(r rune) bool {
	_, ok := sentenceDelimiterSet[r]
	return ok
}

// IsWordDelimiter reports whether r separates two words.
func IsWordDelimiter(r rune) bool {
	_, ok := wordDelimiterSet[r]
	return ok
}
