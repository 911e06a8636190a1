// Package listener is the operator-facing terminal surface: concise status
// lines and the human approval gate for code execution.
package listener

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

var rl *readline.Instance
var mu sync.Mutex

func Init() error {
	var err error
	rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "",
		EOFPrompt:       "",
	})
	return err
}

func Close() {
	if rl != nil {
		_ = rl.Close()
	}
}

// AsyncPrintln prints above the prompt without breaking pending input.
func AsyncPrintln(s string) {
	mu.Lock()
	defer mu.Unlock()
	if rl == nil {
		fmt.Println(s)
		return
	}
	_, _ = rl.Write([]byte("\r\n" + s + "\r\n"))
	rl.Refresh()
}

func getConfirmation(prompt string) string {
	if rl == nil {
		fmt.Print(prompt)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(strings.ToLower(line))
	}

	mu.Lock()
	old := rl.Config.Prompt
	rl.SetPrompt(prompt)
	mu.Unlock()

	line, err := rl.Readline()
	if err != nil {
		line = ""
	}

	mu.Lock()
	rl.SetPrompt(old)
	mu.Unlock()
	return strings.TrimSpace(strings.ToLower(line))
}

// AskYesNo blocks until the operator answers y or n.
func AskYesNo(question string) bool {
	AsyncPrintln(question + " [y/n]")
	for {
		switch getConfirmation("> ") {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		AsyncPrintln("Please answer y/n.")
	}
}
