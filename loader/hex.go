package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxHexWords bounds the image size a hex file can describe.
const maxHexWords = 1 << 24

// LoadHex parses a word-per-line hex image in the format read by Verilog's
// $readmemh. Words are separated by whitespace, "//" starts a comment
// running to the end of the line, "_" digit separators are ignored, and
// "@addr" moves the load position to the given word index. Words skipped
// by an address directive are zero.
func LoadHex(r io.Reader) ([]uint32, error) {
	var (
		words  []uint32
		pos    int
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}

		for _, tok := range strings.Fields(line) {
			if addr, ok := strings.CutPrefix(tok, "@"); ok {
				v, err := parseHexWord(addr)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad address %q: %w", lineNo, tok, err)
				}
				pos = int(v)
				continue
			}

			v, err := parseHexWord(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad word %q: %w", lineNo, tok, err)
			}
			if pos >= maxHexWords {
				return nil, fmt.Errorf("line %d: image exceeds %d words", lineNo, maxHexWords)
			}

			for len(words) <= pos {
				words = append(words, 0)
			}
			words[pos] = v
			pos++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return words, nil
}

// LoadHexFile reads a hex image from path.
func LoadHexFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadHex(f)
}

func parseHexWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
