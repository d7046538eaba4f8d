package tasklink

import "log"

// Verbose enables debug logging.
var Verbose bool

func debugf(format string, args ...any) {
	if !Verbose {
		return
	}
	log.Printf(format, args...)
}
