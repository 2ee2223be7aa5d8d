package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackCharsPerToken approximates English text when no BPE encoding is
// available (offline hosts cannot fetch the cl100k_base vocabulary).
const fallbackCharsPerToken = 4

// TextCounter estimates how many tokens a text payload will consume. It is
// used to size accessibility-tree dumps before they are sent to the model.
type TextCounter struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTextCounter returns a counter backed by the cl100k_base encoding when it
// can be loaded, or a character heuristic otherwise.
func NewTextCounter() *TextCounter {
	return &TextCounter{}
}

func (c *TextCounter) load() {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err == nil {
		c.encoding = enc
	}
}

// Count returns the estimated token count of text.
func (c *TextCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(c.load)
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	return (len(text) + fallbackCharsPerToken - 1) / fallbackCharsPerToken
}
