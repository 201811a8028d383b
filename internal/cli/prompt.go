package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForInstruction asks for an edit instruction on out and reads one
// line from in. Returns "" if nothing could be read.
func PromptForInstruction(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Instruction (e.g. 'Highlight the vascular structure in red'): ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Msg("Failed to read instruction")
		return ""
	}
	return strings.TrimSpace(input)
}
