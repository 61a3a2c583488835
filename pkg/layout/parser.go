// Package layout parses chain-descriptor files: a small declarative format
// naming the devices on a scan chain and their IR widths, for callers that
// know the board topology without running discovery.
package layout

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var descriptorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Brace", Pattern: `[{}]`},
})

// Parser parses chain descriptor files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser builds the descriptor grammar.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(descriptorLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
	)
	if err != nil {
		return nil, fmt.Errorf("layout: failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse reads a descriptor from r and validates it.
func (p *Parser) Parse(r io.Reader) (*File, error) {
	file, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("layout: parse error: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// ParseString parses a descriptor held in a string.
func (p *Parser) ParseString(input string) (*File, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("layout: parse error: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// ParseFile parses a descriptor from disk.
func (p *Parser) ParseFile(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("layout: failed to open file: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}
