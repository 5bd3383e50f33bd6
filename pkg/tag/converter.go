package tag

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/macropower/charon/pkg/execs"
)

var stringElement = regexp.MustCompile(`(?s)<string>(.*?)</string>`)

// ConverterStrategy handles attributes that decode poorly in-process. A blob
// carrying the property list [Signature] is piped through an external
// converter (e.g. "plutil -convert xml1 -o - -") and the <string> values of
// the XML output become tags. Blobs that are already XML are matched
// directly.
type ConverterStrategy struct {
	Command *execs.Command
}

// NewConverterStrategy creates a [ConverterStrategy] running cmd.
func NewConverterStrategy(cmd *execs.Command) ConverterStrategy {
	return ConverterStrategy{Command: cmd}
}

func (ConverterStrategy) Name() string {
	return "converter"
}

func (s ConverterStrategy) Tags(ctx context.Context, in *Input) ([]string, error) {
	switch {
	case in.HasSignature():
		if s.Command == nil || s.Command.Command == "" {
			return nil, nil
		}

		res, err := execs.NewExecutor(s.Command).ExecWithStdin(ctx, in.Attr)
		if err != nil {
			return nil, fmt.Errorf("convert property list: %w", err)
		}

		return StringValues(res.Stdout), nil

	case bytes.Contains(in.Attr, []byte("<string>")):
		return StringValues(in.Attr), nil
	}

	return nil, nil
}

// StringValues returns the contents of every <string> element in data.
func StringValues(data []byte) []string {
	var values []string
	for _, m := range stringElement.FindAllSubmatch(data, -1) {
		values = append(values, html.UnescapeString(string(m[1])))
	}

	return values
}
