package ocr

import "strings"

// Flatten joins the recognized structure back into plain text: words with a
// single space, lines and regions with a single newline, in original order.
// The final text is trimmed. A result with zero regions flattens to "".
func Flatten(res Result) string {
	var b strings.Builder
	for _, reg := range res.Regions {
		for _, ln := range reg.Lines {
			words := make([]string, 0, len(ln.Words))
			for _, w := range ln.Words {
				words = append(words, w.Text)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

// Split cuts text into chunks of exactly chunkSize runes; the last chunk may
// be shorter. Boundaries are purely positional and may fall mid-word — the
// transport's message cap is hard, so no attempt is made to break on spaces.
// Counting runes (not bytes) keeps multi-byte text within the cap without
// splitting a character in half.
func Split(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+chunkSize-1)/chunkSize)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
