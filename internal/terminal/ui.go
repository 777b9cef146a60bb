package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Colors for terminal output.
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stdout
	color           = term.IsTerminal(int(os.Stdout.Fd()))
)

// SetOutput redirects all helpers to w. Colors are enabled only when w is a
// terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	color = false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
}

// Output returns the writer the helpers print to.
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// Paint wraps s in the given escape codes when colors are enabled.
func Paint(s string, codes ...string) string {
	mu.Lock()
	enabled := color
	mu.Unlock()
	if !enabled || len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

func printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format, args...)
}

// Success prints a green success message.
func Success(msg string) {
	printf("%s %s\n", Paint("✓", Bold, Green), msg)
}

// Error prints a red error message.
func Error(msg string) {
	printf("%s %s\n", Paint("✗", Bold, Red), msg)
}

// Info prints a blue info message.
func Info(msg string) {
	printf("%s %s\n", Paint("i", Bold, Blue), msg)
}

// Warning prints a yellow warning message.
func Warning(msg string) {
	printf("%s %s\n", Paint("!", Bold, Yellow), msg)
}

// Header prints a bold header.
func Header(msg string) {
	printf("\n%s\n", Paint(msg, Bold))
}

// Detail prints an indented detail line.
func Detail(label, value string) {
	printf("  %s %s\n", Paint(label+":", Dim), value)
}

// Divider prints a horizontal line.
func Divider() {
	printf("%s\n", Paint(strings.Repeat("─", 60), Dim))
}

// Println prints a plain line.
func Println(msg string) {
	printf("%s\n", msg)
}

// ToolStatus prints availability of the external commands bbtool shells out to.
func ToolStatus(tools map[string]bool, order []string) {
	mark := func(ok bool) string {
		if ok {
			return Paint("✓", Green)
		}
		return Paint("✗", Red)
	}

	parts := make([]string, 0, len(order))
	missing := false
	for _, name := range order {
		ok := tools[name]
		if !ok {
			missing = true
		}
		parts = append(parts, name+" "+mark(ok))
	}
	printf("  %s %s\n", Paint("Tools:", Dim), strings.Join(parts, ", "))
	if missing {
		printf("  %s\n", Paint("Device diagnostics need the macOS system tools above.", Dim))
	}
}
