package display

import (
	"fmt"
	"os"

	"github.com/backmassage/stillmaster/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Magenta != "" {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, `     _   _ _ _                     _
 ___| |_(_) | |_ __ ___   __ _ ___| |_ ___ _ __
/ __| __| | | | '_ `+"`"+` _ \ / _`+"`"+` / __| __/ _ \ '__|
\__ \ |_| | | | | | | | | (_| \__ \ ||  __/ |
|___/\__|_|_|_|_| |_| |_|\__,_|___/\__\___|_|
`)
	if term.Magenta != "" {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
