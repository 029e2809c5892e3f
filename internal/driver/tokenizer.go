package driver

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errEmptyLine    = errors.New("empty line")
	errUnknownKind  = errors.New("unrecognized operation character")
	errMissingID    = errors.New("missing transaction id")
	errMissingItem  = errors.New("missing item for read/write")
	errTrailingText = errors.New("unexpected trailing tokens")
)

// ParseLine tokenizes one schedule-file line into an Operation.
// Whitespace is the only significant separator; blank lines are
// reported as errEmptyLine so the caller can skip them without
// logging a warning.
func ParseLine(line string, lineNo int) (Operation, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errEmptyLine}
	}

	kind, err := parseKind(fields[0])
	if err != nil {
		return Operation{}, &ParseError{Line: lineNo, Text: line, Err: err}
	}

	if len(fields) < 2 {
		return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errMissingID}
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errMissingID}
	}

	op := Operation{Kind: kind, TxnID: id, Line: lineNo}

	switch kind {
	case OpBegin, OpEnd:
		if len(fields) > 2 {
			return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errTrailingText}
		}
	case OpRead, OpWrite:
		if len(fields) < 3 || fields[2] == "" {
			return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errMissingItem}
		}
		if len(fields) > 3 {
			return Operation{}, &ParseError{Line: lineNo, Text: line, Err: errTrailingText}
		}
		op.Item = fields[2]
	}

	return op, nil
}

func parseKind(token string) (OpKind, error) {
	switch strings.ToLower(token) {
	case "b":
		return OpBegin, nil
	case "r":
		return OpRead, nil
	case "w":
		return OpWrite, nil
	case "e":
		return OpEnd, nil
	default:
		return 0, errUnknownKind
	}
}
