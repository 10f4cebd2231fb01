// Package console is an interactive AT command prompt for UART modules.
package console

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

// Console sends every entered line as an AT command and prints how the module answered.
// Lines starting with ':' are console commands.
type Console struct {
	at hal.CommandChannel
	rl *readline.Instance
}

func New(at hal.CommandChannel) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "at> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{at: at, rl: rl}, nil
}

// Stdout returns a writer that doesn't break the prompt
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads lines until EOF or :quit
func (c *Console) Run() {
	defer c.rl.Close()

	fmt.Fprintln(c.rl.Stdout(), helpText)
	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		out, quit := c.execute(line)
		if out != "" {
			fmt.Fprintln(c.rl.Stdout(), out)
		}
		if quit {
			return
		}
	}
}

const helpText = `Type an AT command and press enter, the module answer is classified as OK, ERROR or timeout.
  :hex <bytes>  send raw bytes given as hex, e.g. :hex 48656c6c6f
  :help         show this help
  :quit         exit`

func (c *Console) execute(line string) (string, bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return "", false
	}
	if !strings.HasPrefix(input, ":") {
		return describe(c.at.ATSendCommand(input)), false
	}

	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case ":quit", ":q":
		return "", true
	case ":help", ":?":
		return helpText, false
	case ":hex":
		data, err := hex.DecodeString(strings.Join(parts[1:], ""))
		if err != nil {
			return fmt.Sprintf("invalid hex: %s", err), false
		}
		return describe(c.at.ATSendData(data)), false
	}
	return fmt.Sprintf("unknown command %s, type :help", parts[0]), false
}

func describe(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, hal.ErrATCommandFailed):
		return "ERROR"
	case errors.Is(err, hal.ErrATTimeout):
		return "timeout"
	}
	return fmt.Sprintf("failed: %s", err)
}
