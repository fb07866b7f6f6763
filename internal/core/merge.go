package core

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

// MergeStrategy defines how Add treats a record whose key is already sealed
// with different content
type MergeStrategy int

const (
	StrategyAsk          MergeStrategy = iota // Ask user for each conflict
	StrategyKeepExisting                      // Always keep the sealed version
	StrategyReplace                           // Always seal the incoming version
	StrategyKeepBoth                          // Seal incoming under a new " (N)" key
)

// ConflictResolution is the choice made for a single conflict
type ConflictResolution int

const (
	ResolutionKeepExisting ConflictResolution = iota
	ResolutionReplace
	ResolutionKeepBoth
)

var ErrNoPrompter = errors.New("conflict needs a strategy: no terminal to ask")

// Prompter asks interactive questions
type Prompter struct {
	in   io.Reader
	out  io.Writer
	line *bufio.Reader
}

// NewPrompter reads answers from in and writes questions to out.
// When in is a terminal, answers are single keystrokes.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, line: bufio.NewReader(in)}
}

// Choice prints prompt and returns the lowercased answer
func (p *Prompter) Choice(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer func() { _ = term.Restore(int(f.Fd()), oldState) }()

			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				return "", err
			}
			choice := strings.ToLower(string(buf[0]))
			fmt.Fprintf(p.out, "%s\r\n", choice)
			return choice, nil
		}
	}

	input, err := p.line.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(input)), nil
}

// CompareRecords checks if two canonical records are identical
func CompareRecords(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return bytes.Equal(ha[:], hb[:])
}

// HandleConflict decides what to do with an incoming record whose key is
// already sealed with different content. sealedData and incoming are the
// pretty-printed records; they and bothKey, the key "keep both" would seal
// the source under, are only read for StrategyAsk.
func HandleConflict(key, bothKey string, sealedData, incoming []byte, strategy MergeStrategy, p *Prompter) (ConflictResolution, error) {
	switch strategy {
	case StrategyKeepExisting:
		return ResolutionKeepExisting, nil
	case StrategyReplace:
		return ResolutionReplace, nil
	case StrategyKeepBoth:
		return ResolutionKeepBoth, nil
	}

	if p == nil {
		return ResolutionKeepExisting, fmt.Errorf("%w (%s)", ErrNoPrompter, key)
	}

	fmt.Fprintf(p.out, "\nwarning: conflict detected: %s\n", key)
	fmt.Fprintf(p.out, "   Sealed record differs from the one in the source\n")
	fmt.Fprintf(p.out, "\nOptions:\n")
	fmt.Fprintf(p.out, "  [k] Keep sealed version\n")
	fmt.Fprintf(p.out, "  [r] Replace with source version\n")
	if bothKey != "" {
		fmt.Fprintf(p.out, "  [b] Keep both (seal source as %q)\n", bothKey)
	} else {
		fmt.Fprintf(p.out, "  [b] Keep both (seal source under a new key)\n")
	}
	fmt.Fprintf(p.out, "  [d] Show diff\n")

	for {
		choice, err := p.Choice("\nYour choice: ")
		if err != nil {
			return ResolutionKeepExisting, err
		}

		switch choice {
		case "k":
			return ResolutionKeepExisting, nil
		case "r":
			return ResolutionReplace, nil
		case "b":
			return ResolutionKeepBoth, nil
		case "d":
			diff, err := GenerateUnifiedDiff(key, sealedData, incoming)
			if err != nil {
				fmt.Fprintf(p.out, "Error during diff: %v\n", err)
				continue
			}
			fmt.Fprint(p.out, diff)
		default:
			fmt.Fprintf(p.out, "Invalid choice. Please enter k, r, b, d\n")
		}
	}
}

// GenerateUnifiedDiff generates a unified diff between the sealed and the
// source version of a record. Returns "" when they are identical.
func GenerateUnifiedDiff(key string, sealedData, sourceData []byte) (string, error) {
	if CompareRecords(sealedData, sourceData) {
		return "", nil
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff: one JSON field per line
	sealedStr, sourceStr := string(sealedData), string(sourceData)
	a, b, lineArray := dmp.DiffLinesToChars(sealedStr, sourceStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var body strings.Builder
	changed := false
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, changed = "-", true
		case diffmatchpatch.DiffInsert:
			prefix, changed = "+", true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			body.WriteString(prefix)
			body.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				body.WriteString("\n")
			}
		}
	}
	if !changed {
		return "", nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "--- sealed/%s\n", key)
	fmt.Fprintf(&result, "+++ source/%s\n", key)
	fmt.Fprintf(&result, "@@ -1,%d +1,%d @@\n", countLines(sealedStr), countLines(sourceStr))
	result.WriteString(body.String())

	return result.String(), nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// nextFreeKey returns key with the first " (N)" suffix not in taken
func nextFreeKey(key string, taken map[string]bool) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", key, n)
		if !taken[candidate] {
			return candidate
		}
	}
}
