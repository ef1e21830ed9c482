package extractor

import (
	"slices"
	"sort"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/token"
	"github.com/xplshn/jfront/pkg/util"
)

// Function describes one def header. Params keeps source order and may repeat
// a name.
type Function struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Params []string `json:"params"`
	Line   int      `json:"line"`
}

type Functions map[string]*Function

// Names returns the function names in sorted order.
func (fs Functions) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type extractor struct {
	cfg   *config.Config
	file  string
	seq   token.Sequence
	pos   int
	funcs Functions
}

// Extract collects every function header in table. Files are visited in the
// order their scans completed, so when two files define the same name the
// later one wins under the overwrite policy.
func Extract(table *token.Table, cfg *config.Config) (Functions, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	x := &extractor{cfg: cfg, funcs: make(Functions)}
	for _, path := range table.Paths() {
		seq, _ := table.Get(path)
		x.file, x.seq, x.pos = path, seq, 0
		if err := x.walk(); err != nil {
			return nil, err
		}
	}
	return x.funcs, nil
}

func (x *extractor) walk() error {
	for x.pos < len(x.seq) {
		p := x.seq[x.pos]
		x.pos++
		if p.Token.Type != token.Def {
			continue
		}
		fn, err := x.header(p.Line)
		if err != nil {
			return err
		}
		if err := x.define(fn); err != nil {
			return err
		}
	}
	return nil
}

// header parses `Symbol ( [Symbol {, Symbol}] [,] )` after a def keyword.
func (x *extractor) header(line int) (*Function, error) {
	name, err := x.expect("function name", token.Symbol)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect("'('", token.LParen); err != nil {
		return nil, err
	}

	fn := &Function{Name: name.Token.Text, File: x.file, Params: []string{}, Line: line}
	for {
		p, err := x.expect("parameter name or ')'", token.Symbol, token.RParen)
		if err != nil {
			return nil, err
		}
		if p.Token.Type == token.RParen {
			return fn, nil
		}
		fn.Params = append(fn.Params, p.Token.Text)

		sep, err := x.expect("',' or ')'", token.Comma, token.RParen)
		if err != nil {
			return nil, err
		}
		if sep.Token.Type == token.RParen {
			return fn, nil
		}
	}
}

// expect consumes the next token if its type is one of types.
func (x *extractor) expect(what string, types ...token.Type) (token.Positioned, error) {
	if x.pos >= len(x.seq) {
		line := 0
		if n := len(x.seq); n > 0 {
			line = x.seq[n-1].Line
		}
		return token.Positioned{}, util.NewGrammarError(x.file, line, what, "end of file")
	}
	p := x.seq[x.pos]
	if !slices.Contains(types, p.Token.Type) {
		return p, util.NewGrammarError(x.file, p.Line, what, p.Token.String())
	}
	x.pos++
	return p, nil
}

func (x *extractor) define(fn *Function) error {
	if prev, ok := x.funcs[fn.Name]; ok {
		if x.cfg.MergePolicy == config.MergeReject {
			return util.NewRedefinitionError(fn.File, fn.Line, fn.Name, prev.File, prev.Line)
		}
		util.Warn(x.cfg, config.WarnRedefinition, fn.File, fn.Line, "function %s redefined, replacing the definition at %s:%d", fn.Name, prev.File, prev.Line)
	}
	util.Debug("Found function %s(%d params) in %s", fn.Name, len(fn.Params), fn.File)
	x.funcs[fn.Name] = fn
	return nil
}
