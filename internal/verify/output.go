package verify

import "unicode/utf8"

// MaxOutputLen caps how much combined output a failed result retains.
const MaxOutputLen = 8000

// CombineOutput joins stdout and stderr and keeps the tail, where tools
// usually print their error summary.
func CombineOutput(stdout, stderr string) string {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	if len(combined) > MaxOutputLen {
		cut := len(combined) - MaxOutputLen
		for cut < len(combined) && !utf8.RuneStart(combined[cut]) {
			cut++
		}
		combined = "…(truncated)\n" + combined[cut:]
	}
	return combined
}
