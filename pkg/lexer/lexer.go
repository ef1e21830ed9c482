package lexer

import (
	"regexp"
	"strings"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/token"
	"github.com/xplshn/jfront/pkg/util"
	"github.com/xplshn/jfront/pkg/value"
)

// Mode is the scanner state. The collector buffer means something different
// in each mode: the pending word, the string body, or the import target.
type Mode int

const (
	ModeNormal Mode = iota
	ModeString
	ModeImport
)

func (m Mode) String() string {
	switch m {
	case ModeString:
		return "string"
	case ModeImport:
		return "import"
	}
	return "normal"
}

var (
	floatPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	intPattern   = regexp.MustCompile(`^[0-9]+$`)
)

var unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t", `\r`, "\r")

// Importer is called when an imp directive is complete. line is the line of
// the directive in the file being scanned.
type Importer interface {
	Import(name string, line int) error
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(name string, line int) error

func (f ImporterFunc) Import(name string, line int) error { return f(name, line) }

type Lexer struct {
	source     []rune
	path       string
	cfg        *config.Config
	importer   Importer
	mode       Mode
	collector  string
	line       int
	stringLine int
	glued      string
	tokens     token.Sequence
}

// NewLexer prepares a scan of source. importer may be nil, in which case imp
// directives are consumed and ignored.
func NewLexer(source []rune, path string, cfg *config.Config, importer Importer) *Lexer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Lexer{
		source: source, path: path, cfg: cfg, importer: importer, line: 1,
	}
}

// Scan runs a fresh lexer over source.
func Scan(source []rune, path string, cfg *config.Config, importer Importer) (token.Sequence, error) {
	return NewLexer(source, path, cfg, importer).Run()
}

func (l *Lexer) Mode() Mode             { return l.mode }
func (l *Lexer) Line() int              { return l.line }
func (l *Lexer) Collector() string      { return l.collector }
func (l *Lexer) Tokens() token.Sequence { return l.tokens }

// Run feeds the whole source through Step and Finish.
func (l *Lexer) Run() (token.Sequence, error) {
	util.Debug("Parsing %s", l.path)
	for _, ch := range l.source {
		if err := l.Step(ch); err != nil {
			return nil, err
		}
	}
	if err := l.Finish(); err != nil {
		return nil, err
	}
	util.Debug("Finished parsing %s", l.path)
	return l.tokens, nil
}

// Step consumes one character. The only error source is the Importer.
func (l *Lexer) Step(ch rune) error {
	switch l.mode {
	case ModeImport:
		return l.stepImport(ch)
	case ModeString:
		l.stepString(ch)
		return nil
	}
	l.stepNormal(ch)
	return nil
}

// Finish handles end of input: whatever is pending in the collector is
// closed out as if a boundary followed.
func (l *Lexer) Finish() error {
	mode := l.mode
	l.mode = ModeNormal
	flushAtEOF := l.cfg.IsFeatureEnabled(config.FeatEOFFlush)

	switch mode {
	case ModeString:
		util.Warn(l.cfg, config.WarnUnterminatedString, l.path, l.stringLine, "string literal is not terminated")
		if flushAtEOF {
			l.emitString()
		}
		l.collector = ""
	case ModeImport:
		name := strings.TrimSpace(l.collector)
		l.collector = ""
		if flushAtEOF && name != "" {
			return l.resolve(name, l.line)
		}
	default:
		if flushAtEOF {
			l.flush()
		}
		l.collector = ""
	}
	return nil
}

func (l *Lexer) stepNormal(ch rune) {
	var after *token.Token
	if typ, ok := token.Punctuation[ch]; ok {
		tok := token.New(typ)
		after = &tok
		ch = ' '
	} else if ch == '"' {
		l.flush()
		l.glued = ""
		l.mode = ModeString
		l.stringLine = l.line
		return
	} else {
		l.collector = strings.TrimSpace(l.collector + string(ch))
	}

	l.matchKeyword()

	switch ch {
	case '\n':
		l.flush()
		l.glued = ""
		l.emit(token.New(token.Newline))
		l.line++
	case ' ', '\t':
		l.flush()
		l.glued = ""
	}

	if after != nil {
		l.emit(*after)
	}
}

// matchKeyword fires on the exact collector contents, so a keyword is
// recognized as soon as its last letter arrives even if more letters follow.
func (l *Lexer) matchKeyword() {
	word := l.collector
	if typ, ok := token.KeywordMap[word]; ok {
		l.collector = ""
		l.emit(token.New(typ))
		l.glued = word
		return
	}
	if b, ok := token.BoolLiterals[word]; ok {
		l.collector = ""
		l.emit(token.NewLiteral(value.NewBool(b)))
		l.glued = word
		return
	}
	if word == token.ImportKeyword && l.cfg.IsFeatureEnabled(config.FeatImports) {
		l.collector = ""
		l.glued = ""
		l.mode = ModeImport
	}
}

func (l *Lexer) stepString(ch rune) {
	if ch == '"' && !strings.HasSuffix(l.collector, `\`) {
		l.emitString()
		l.collector = ""
		l.mode = ModeNormal
		return
	}
	if ch == '\n' {
		l.line++
	}
	l.collector += string(ch)
}

// stepImport collects the module name up to the newline, which it consumes
// without emitting a Newline token.
func (l *Lexer) stepImport(ch rune) error {
	if ch != '\n' {
		l.collector += string(ch)
		return nil
	}
	name := strings.TrimSpace(l.collector)
	line := l.line
	l.collector = ""
	l.mode = ModeNormal
	l.line++
	return l.resolve(name, line)
}

func (l *Lexer) resolve(name string, line int) error {
	if l.importer == nil {
		util.Debug("%s:%d: ignoring import of %s", l.path, line, name)
		return nil
	}
	return l.importer.Import(name, line)
}

// flush classifies and emits the pending collector contents.
func (l *Lexer) flush() {
	if l.collector == "" {
		return
	}
	text := l.collector
	l.collector = ""
	if l.glued != "" {
		util.Warn(l.cfg, config.WarnKeywordPrefix, l.path, l.line, "'%s' follows keyword '%s' without a separator and scans as two tokens", text, l.glued)
	}
	l.glued = ""
	l.emit(l.classify(text))
}

// classify decides what a completed word is: float, integer, one of the
// operators, or a symbol, in that order.
func (l *Lexer) classify(text string) token.Token {
	switch {
	case floatPattern.MatchString(text):
		v, err := value.ParseFloat(text)
		if err == nil {
			return token.NewLiteral(v)
		}
		util.Warn(l.cfg, config.WarnOverflow, l.path, l.line, "float constant %s is out of range; kept as a symbol", text)
		return token.NewSymbol(text)
	case intPattern.MatchString(text):
		v, err := value.ParseInt(text)
		if err == nil {
			return token.NewLiteral(v)
		}
		util.Warn(l.cfg, config.WarnOverflow, l.path, l.line, "integer constant %s overflows 128 bits; kept as a symbol", text)
		return token.NewSymbol(text)
	}
	if typ, ok := token.Operators[text]; ok {
		return token.New(typ)
	}
	return token.NewSymbol(text)
}

func (l *Lexer) emitString() {
	text := l.collector
	if l.cfg.IsFeatureEnabled(config.FeatUnescape) {
		text = unescaper.Replace(text)
	}
	l.tokens = append(l.tokens, token.Positioned{Line: l.stringLine, Token: token.NewLiteral(value.NewText(text))})
	util.Debug("Pushing String \"%s\"", text)
}

func (l *Lexer) emit(tok token.Token) {
	l.tokens = append(l.tokens, token.Positioned{Line: l.line, Token: tok})
	util.Debug("Pushing %s", tok)
}
