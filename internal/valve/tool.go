package valve

import (
	"context"
	"strings"

	"github.com/andygrunwald/vdf"

	"github.com/ryanm101/vent/internal/logging"
	"github.com/ryanm101/vent/internal/metacache"
	"github.com/ryanm101/vent/internal/system"
)

// steamcmd prints this after the app info dump on exit.
const toolTrailer = "Unloading Steam API"

// ToolSource reads `steamcmd +app_info_print`.
type ToolSource struct {
	Runner  system.Runner
	Command string
}

var _ Source = (*ToolSource)(nil)

// NewToolSource returns a steamcmd-backed source.
func NewToolSource(r system.Runner) *ToolSource {
	return &ToolSource{Runner: r, Command: "steamcmd"}
}

// Kind implements Source.
func (s *ToolSource) Kind() metacache.Kind {
	return metacache.KindVDF
}

// Fetch implements Source.
func (s *ToolSource) Fetch(ctx context.Context, appID string) (metacache.Blob, error) {
	out, err := s.Runner.Output(ctx, s.Command, "+app_info_print", appID, "+exit")
	if err != nil {
		return nil, &FetchError{Source: metacache.KindVDF, AppID: appID, Err: err}
	}
	return ParseAppInfo(string(out), appID)
}

// ParseAppInfo extracts the KeyValues document for appID from steamcmd
// output and returns the mapping under the app ID key.
func ParseAppInfo(output, appID string) (metacache.Blob, error) {
	idx := strings.Index(output, `"`+appID+`"`)
	if idx == -1 {
		logging.Error("could not parse steamcmd output, start of VDF metadata could not be found", "app_id", appID)
		logging.Debug(output)
		return nil, &ParseError{Source: metacache.KindVDF, AppID: appID, Reason: ReasonDelimiterNotFound}
	}
	payload := output[idx:]
	if end := strings.Index(payload, toolTrailer); end != -1 {
		payload = payload[:end]
	}

	doc, err := vdf.NewParser(strings.NewReader(normalizeEscapes(payload))).Parse()
	if err != nil {
		return nil, &ParseError{Source: metacache.KindVDF, AppID: appID, Reason: ReasonMalformed, Err: err}
	}

	info, err := Map(doc, appID)
	if err != nil {
		return nil, &ParseError{Source: metacache.KindVDF, AppID: appID, Reason: ReasonMissingPath, Path: appID, Err: err}
	}
	return info, nil
}

// normalizeEscapes rewrites KeyValues escapes for the parser, which drops
// any lone backslash. \n \t and \v become control characters, \\ and \"
// stay escaped, and every other backslash is doubled so it survives as
// written (Windows paths such as bin\win64\Game.exe).
func normalizeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			switch s[i+1] {
			case '\\', '"':
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case 'v':
				b.WriteByte('\v')
				i++
				continue
			}
		}
		b.WriteString(`\\`)
	}
	return b.String()
}
