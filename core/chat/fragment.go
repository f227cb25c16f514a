package chat

// FragmentKind discriminates the three event shapes a streamed answer can
// carry. A sequence holds zero or one Warning (always first), then either
// Response fragments or exactly one terminal Error.
type FragmentKind string

const (
	FragmentResponse FragmentKind = "response"
	FragmentWarning  FragmentKind = "warning"
	FragmentError    FragmentKind = "error"
)

// Fragment is one chunk of a streamed reply delivered to the caller.
type Fragment struct {
	Kind FragmentKind
	Text string
}

// Response creates a response fragment.
func Response(text string) Fragment {
	return Fragment{Kind: FragmentResponse, Text: text}
}

// Warning creates a warning fragment.
func Warning(text string) Fragment {
	return Fragment{Kind: FragmentWarning, Text: text}
}

// Errorf creates an error fragment. Error fragments are always terminal:
// nothing follows them in a sequence.
func Errorf(text string) Fragment {
	return Fragment{Kind: FragmentError, Text: text}
}

// SplitResponse chunks text into response fragments of at most size runes,
// preserving order with no overlap. The last fragment may be shorter.
// Splitting on rune boundaries keeps multi-byte replies intact so that
// concatenating the fragments reproduces the original string exactly.
func SplitResponse(text string, size int) []Fragment {
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	fragments := make([]Fragment, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		fragments = append(fragments, Response(string(runes[start:end])))
	}
	return fragments
}
