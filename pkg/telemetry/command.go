package telemetry

import (
	"strconv"
	"strings"
)

// MaxLineLength is the longest command line kept, extra bytes are dropped.
const MaxLineLength = 24

// LineBuffer assembles command lines one byte at a time. Lines end with
// CR, LF is ignored and backspace removes the last byte.
type LineBuffer struct {
	buf [MaxLineLength]byte
	n   int
}

// Feed consumes one byte and returns a line once CR is received.
func (l *LineBuffer) Feed(b byte) (string, bool) {
	switch {
	case b == '\r':
		line := string(l.buf[:l.n])
		l.n = 0
		return line, true
	case b == '\n':
	case b == '\b':
		if l.n > 0 {
			l.n--
		}
	case l.n < len(l.buf):
		l.buf[l.n] = b
		l.n++
	}
	return "", false
}

// Reset drops a partial line.
func (l *LineBuffer) Reset() {
	l.n = 0
}

// Command is a parsed "$NAMEarg" line, e.g. "$SPD12.5".
type Command struct {
	Name string
	Arg  string
}

// ParseCommand parses a command line. Names are three letters, the rest
// is the argument. Lines not starting with '$' are not commands.
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 4 || line[0] != '$' {
		return Command{}, false
	}
	return Command{Name: strings.ToUpper(line[1:4]), Arg: strings.TrimSpace(line[4:])}, true
}

// Float parses the argument as a number.
func (c Command) Float() (float64, error) {
	return strconv.ParseFloat(c.Arg, 64)
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return "$" + c.Name + c.Arg
}

// CommandHandler handles one command. ErrUnknownCommand and
// strconv.ErrSyntax are reported to the peer with their own statuses.
type CommandHandler func(Command) error
