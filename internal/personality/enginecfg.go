package personality

import (
	"fmt"
	"io"
	"strings"
)

// EngineConfig holds one personality's engine tuning strings.
type EngineConfig struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"out"`
	Ponder string            `json:"ponder"`
}

// ParseEngineStrings reads a personalities.cfg file: blocks separated by a
// blank line, each holding the name, six lines of "cm_parm key=value ..."
// tokens and a ponder line.
func ParseEngineStrings(r io.Reader) (map[string]EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	out := make(map[string]EngineConfig)
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")
		name := strings.TrimSpace(lines[0])
		if name == "" {
			continue
		}

		cfg := EngineConfig{Name: name, Params: make(map[string]string)}
		end := min(len(lines), 7)
		for _, line := range lines[1:end] {
			for _, tok := range strings.Fields(line) {
				if tok == "cm_parm" {
					continue
				}
				key, value, ok := strings.Cut(tok, "=")
				if !ok {
					return nil, fmt.Errorf("engine config %s: bad parameter %q", name, tok)
				}
				cfg.Params[key] = value
			}
		}
		if len(lines) > 7 {
			cfg.Ponder = strings.TrimSpace(lines[7])
		}
		out[name] = cfg
	}
	return out, nil
}
