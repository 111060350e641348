package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errInputClosed = errors.New("input closed before an answer was given")

// prompter asks the interactive questions on a line-oriented reader.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) yesNo(question string) (bool, error) {
	for {
		answer, err := p.readLine(question + " (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' or 'n'")
	}
}

// track returns the 1-based track number typed by the user.
func (p *prompter) track() (int, error) {
	for {
		answer, err := p.readLine("Audio track to use (1/2/3): ")
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(answer)
		switch {
		case convErr != nil:
			fmt.Fprintln(p.out, "Please enter a valid number (1, 2, 3, etc.)")
		case n < 1:
			fmt.Fprintln(p.out, "Please enter a positive number (1, 2, 3, etc.)")
		default:
			return n, nil
		}
	}
}

func (p *prompter) directory() (string, error) {
	for {
		answer, err := p.readLine("Enter directory path: ")
		if err != nil {
			return "", err
		}
		if dir := stripQuotes(answer); dir != "" {
			return dir, nil
		}
		fmt.Fprintln(p.out, "Please enter a directory path")
	}
}

// preferences asks the stage toggles in the order the summary prints them.
func (p *prompter) preferences(opts *convertOptions) error {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Configuration Options:")
	fmt.Fprintln(p.out, strings.Repeat("-", 50))

	var err error
	if opts.removeSilence, err = p.yesNo("Remove stretches of silence?"); err != nil {
		return err
	}
	if opts.removeSilence {
		if opts.useML, err = p.yesNo("Detect speech with the ML model?"); err != nil {
			return err
		}
	}
	if opts.normalize, err = p.yesNo("Normalize audio levels for listening?"); err != nil {
		return err
	}
	if opts.track, err = p.track(); err != nil {
		return err
	}
	fmt.Fprintln(p.out)
	return nil
}

// stripQuotes removes one pair of matching quotes left by drag-and-drop paths.
func stripQuotes(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return strings.TrimSpace(value[1 : len(value)-1])
		}
	}
	return value
}
