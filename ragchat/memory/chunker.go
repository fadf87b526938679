package memory

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into chunks of at most size characters on word boundaries.
// Consecutive chunks share up to overlap characters of trailing words.
// A single word longer than size becomes its own chunk.
func SplitText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{strings.Join(words, " ")}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		chunks []string
		cur    []string
		length int
	)
	flush := func() {
		chunks = append(chunks, strings.Join(cur, " "))

		// carry trailing words into the next chunk
		var carry []string
		carried := 0
		for i := len(cur) - 1; i >= 0; i-- {
			n := utf8.RuneCountInString(cur[i])
			if carried+n+len(carry) > overlap {
				break
			}
			carry = append([]string{cur[i]}, carry...)
			carried += n
		}
		cur = carry
		length = carried
		if len(carry) > 1 {
			length += len(carry) - 1
		}
	}

	for _, w := range words {
		n := utf8.RuneCountInString(w)
		sep := 0
		if len(cur) > 0 {
			sep = 1
		}
		if length+sep+n > size && len(cur) > 0 {
			flush()
			sep = 0
			if len(cur) > 0 {
				sep = 1
			}
			if length+sep+n > size {
				// overlap alone leaves no room
				cur, length, sep = nil, 0, 0
			}
		}
		cur = append(cur, w)
		length += sep + n
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}
