package sql

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
)

// ErrIncomplete marks input that is valid so far but not yet a whole
// statement: a missing terminating semicolon or an unterminated string
// literal. Interactive callers use it to keep reading lines instead of
// reporting a syntax error.
var ErrIncomplete = errors.New("incomplete statement")

// ParseError is a syntax error at a known byte offset in the input.
type ParseError struct {
	Pos  int
	Near string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("syntax error at offset %d near %q: %s", e.Pos, e.Near, e.Msg)
	}
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

type StatementType int

const (
	SelectType StatementType = iota
	InsertType
	UpdateType
	DeleteType
	CreateTableType
	RenameTableType
	AddColumnType
)

type Statement interface {
	Type() StatementType
}

// SelectStatement reads rows from one table. An empty Columns slice
// means the statement used the * wildcard.
type SelectStatement struct {
	TableName string
	Columns   []string
	Where     []core.Predicate
}

func (statement SelectStatement) Type() StatementType {
	return SelectType
}

// InsertStatement appends one row. An empty Columns slice means the
// values are positional against the table's declared column order.
type InsertStatement struct {
	TableName string
	Columns   []string
	Values    []core.Value
}

func (statement InsertStatement) Type() StatementType {
	return InsertType
}

// Assignment is a single SET clause: column = literal.
type Assignment struct {
	Column string
	Value  core.Value
}

type UpdateStatement struct {
	TableName string
	Set       []Assignment
	Where     []core.Predicate
}

func (statement UpdateStatement) Type() StatementType {
	return UpdateType
}

type DeleteStatement struct {
	TableName string
	Where     []core.Predicate
}

func (statement DeleteStatement) Type() StatementType {
	return DeleteType
}

type CreateTableStatement struct {
	TableName string
	Columns   []core.Column
}

func (statement CreateTableStatement) Type() StatementType {
	return CreateTableType
}

type RenameTableStatement struct {
	TableName string
	NewName   string
}

func (statement RenameTableStatement) Type() StatementType {
	return RenameTableType
}

// AddColumnStatement adds a column to an existing table. HasDefault
// distinguishes an explicit DEFAULT NULL from no DEFAULT clause at all.
type AddColumnStatement struct {
	TableName  string
	Column     core.Column
	Default    core.Value
	HasDefault bool
}

func (statement AddColumnStatement) Type() StatementType {
	return AddColumnType
}

type Parser struct {
	lexer *Lexer
}

func NewParser(sql string) *Parser {
	return &Parser{lexer: NewLexer(sql)}
}

// Parse compiles one statement. The statement must end with a
// semicolon; input that runs out before the statement is complete
// returns an error wrapping ErrIncomplete.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).Parse()
}

func (parser *Parser) Parse() (Statement, error) {
	token := parser.lexer.NextToken()

	var statement Statement
	var err error

	switch token.Type {
	case Select:
		statement, err = parser.parseSelect()
	case Insert:
		statement, err = parser.parseInsert()
	case Update:
		statement, err = parser.parseUpdate()
	case Delete:
		statement, err = parser.parseDelete()
	case Create:
		statement, err = parser.parseCreateTable()
	case Alter:
		statement, err = parser.parseAlterTable()
	case EOF:
		return nil, fmt.Errorf("empty input: %w", ErrIncomplete)
	default:
		return nil, parser.errorf(token, "expected a statement keyword")
	}
	if err != nil {
		return nil, err
	}

	if err := parser.expect(Semicolon, "';'"); err != nil {
		return nil, err
	}

	trailing := parser.lexer.NextToken()
	if trailing.Type != EOF {
		return nil, parser.errorf(trailing, "unexpected input after ';'")
	}

	return statement, nil
}

func (parser *Parser) parseSelect() (Statement, error) {
	statement := SelectStatement{}

	token := parser.lexer.NextToken()
	switch token.Type {
	case Wildcard:
	case Identifier:
		statement.Columns = append(statement.Columns, token.Value)
		for parser.lexer.PeekToken().Type == Comma {
			parser.lexer.NextToken()
			name, err := parser.expectIdentifier("column name")
			if err != nil {
				return nil, err
			}
			statement.Columns = append(statement.Columns, name)
		}
	default:
		return nil, parser.errorf(token, "expected '*' or a column list")
	}

	if err := parser.expect(From, "FROM"); err != nil {
		return nil, err
	}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.TableName = name

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func (parser *Parser) parseInsert() (Statement, error) {
	statement := InsertStatement{}

	if err := parser.expect(Into, "INTO"); err != nil {
		return nil, err
	}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.TableName = name

	if parser.lexer.PeekToken().Type == ParenOpen {
		parser.lexer.NextToken()
		for {
			column, err := parser.expectIdentifier("column name")
			if err != nil {
				return nil, err
			}
			statement.Columns = append(statement.Columns, column)

			token := parser.lexer.NextToken()
			if token.Type == ParenClose {
				break
			}
			if token.Type != Comma {
				return nil, parser.errorf(token, "expected ',' or ')'")
			}
		}
	}

	if err := parser.expect(Values, "VALUES"); err != nil {
		return nil, err
	}
	if err := parser.expect(ParenOpen, "'('"); err != nil {
		return nil, err
	}

	for {
		value, err := parser.parseLiteral()
		if err != nil {
			return nil, err
		}
		statement.Values = append(statement.Values, value)

		token := parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, parser.errorf(token, "expected ',' or ')'")
		}
	}

	if len(statement.Columns) > 0 && len(statement.Columns) != len(statement.Values) {
		return nil, &ParseError{
			Msg: fmt.Sprintf("%d columns but %d values", len(statement.Columns), len(statement.Values)),
		}
	}

	return statement, nil
}

func (parser *Parser) parseUpdate() (Statement, error) {
	statement := UpdateStatement{}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.TableName = name

	if err := parser.expect(Set, "SET"); err != nil {
		return nil, err
	}

	for {
		column, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}
		if err := parser.expect(Equals, "'='"); err != nil {
			return nil, err
		}
		value, err := parser.parseLiteral()
		if err != nil {
			return nil, err
		}
		statement.Set = append(statement.Set, Assignment{Column: column, Value: value})

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken()
	}

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func (parser *Parser) parseDelete() (Statement, error) {
	statement := DeleteStatement{}

	if err := parser.expect(From, "FROM"); err != nil {
		return nil, err
	}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.TableName = name

	where, err := parser.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	statement.Where = where

	return statement, nil
}

func (parser *Parser) parseCreateTable() (Statement, error) {
	statement := CreateTableStatement{}

	if err := parser.expect(TableKeyword, "TABLE"); err != nil {
		return nil, err
	}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}
	statement.TableName = name

	if err := parser.expect(ParenOpen, "'('"); err != nil {
		return nil, err
	}

	for {
		column, err := parser.parseColumnDef()
		if err != nil {
			return nil, err
		}
		statement.Columns = append(statement.Columns, column)

		token := parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, parser.errorf(token, "expected ',' or ')'")
		}
	}

	seen := make(map[string]bool, len(statement.Columns))
	for _, column := range statement.Columns {
		if seen[column.Name] {
			return nil, &ParseError{Msg: fmt.Sprintf("duplicate column %q", column.Name)}
		}
		seen[column.Name] = true
	}

	return statement, nil
}

func (parser *Parser) parseAlterTable() (Statement, error) {
	if err := parser.expect(TableKeyword, "TABLE"); err != nil {
		return nil, err
	}

	name, err := parser.expectIdentifier("table name")
	if err != nil {
		return nil, err
	}

	token := parser.lexer.NextToken()
	switch token.Type {
	case Rename:
		if err := parser.expect(To, "TO"); err != nil {
			return nil, err
		}
		newName, err := parser.expectIdentifier("new table name")
		if err != nil {
			return nil, err
		}
		return RenameTableStatement{TableName: name, NewName: newName}, nil

	case Add:
		if parser.lexer.PeekToken().Type == Column {
			parser.lexer.NextToken()
		}
		column, err := parser.parseColumnDef()
		if err != nil {
			return nil, err
		}
		statement := AddColumnStatement{TableName: name, Column: column}
		if parser.lexer.PeekToken().Type == Default {
			parser.lexer.NextToken()
			value, err := parser.parseLiteral()
			if err != nil {
				return nil, err
			}
			statement.Default = value
			statement.HasDefault = true
		}
		return statement, nil

	default:
		return nil, parser.errorf(token, "expected RENAME TO or ADD COLUMN")
	}
}

// parseColumnDef reads "name TYPE [PRIMARY KEY] [NOT NULL]". Columns
// are nullable unless marked NOT NULL; a primary key is never nullable.
func (parser *Parser) parseColumnDef() (core.Column, error) {
	name, err := parser.expectIdentifier("column name")
	if err != nil {
		return core.Column{}, err
	}

	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return core.Column{}, parser.errorf(token, "expected a column type")
	}
	columnType, ok := parseColumnType(token.Value)
	if !ok {
		return core.Column{}, parser.errorf(token, "unknown column type")
	}

	column := core.Column{Name: name, Type: columnType, Nullable: true}

	for {
		switch parser.lexer.PeekToken().Type {
		case PrimaryKey:
			parser.lexer.NextToken()
			column.PrimaryKey = true
			column.Nullable = false
		case Not:
			parser.lexer.NextToken()
			if err := parser.expect(Null, "NULL"); err != nil {
				return core.Column{}, err
			}
			column.Nullable = false
		default:
			return column, nil
		}
	}
}

func parseColumnType(name string) (core.ColumnType, bool) {
	switch toUpper(name) {
	case "INTEGER", "INT":
		return core.IntType, true
	case "TEXT", "VARCHAR":
		return core.TextType, true
	case "BOOLEAN", "BOOL":
		return core.BoolType, true
	case "DATE":
		return core.DateType, true
	default:
		return core.IntType, false
	}
}

func (parser *Parser) parseOptionalWhere() ([]core.Predicate, error) {
	if parser.lexer.PeekToken().Type != Where {
		return nil, nil
	}
	parser.lexer.NextToken()

	var predicates []core.Predicate
	for {
		column, err := parser.expectIdentifier("column name")
		if err != nil {
			return nil, err
		}

		token := parser.lexer.NextToken()
		var op core.CompareOp
		switch token.Type {
		case Equals:
			op = core.Eq
		case NotEquals:
			op = core.Ne
		case LessThan:
			op = core.Lt
		case LessThanOrEqual:
			op = core.Le
		case GreaterThan:
			op = core.Gt
		case GreaterThanOrEqual:
			op = core.Ge
		default:
			return nil, parser.errorf(token, "expected a comparison operator")
		}

		value, err := parser.parseLiteral()
		if err != nil {
			return nil, err
		}

		predicates = append(predicates, core.Predicate{Column: column, Op: op, Value: value})

		if parser.lexer.PeekToken().Type != And {
			return predicates, nil
		}
		parser.lexer.NextToken()
	}
}

func (parser *Parser) parseLiteral() (core.Value, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case Int:
		n, err := strconv.ParseInt(token.Value, 10, 64)
		if err != nil {
			return core.Null(), parser.errorf(token, "integer out of range")
		}
		return core.NewInt(n), nil
	case String:
		return core.NewText(token.Value), nil
	case True:
		return core.NewBool(true), nil
	case False:
		return core.NewBool(false), nil
	case Null:
		return core.Null(), nil
	case UnterminatedString:
		return core.Null(), fmt.Errorf("unterminated string literal: %w", ErrIncomplete)
	case EOF:
		return core.Null(), fmt.Errorf("expected a literal: %w", ErrIncomplete)
	default:
		return core.Null(), parser.errorf(token, "expected a literal")
	}
}

func (parser *Parser) expect(tokenType TokenType, want string) error {
	token := parser.lexer.NextToken()
	if token.Type == tokenType {
		return nil
	}
	if token.Type == EOF {
		return fmt.Errorf("expected %s: %w", want, ErrIncomplete)
	}
	if token.Type == UnterminatedString {
		return fmt.Errorf("unterminated string literal: %w", ErrIncomplete)
	}
	return parser.errorf(token, "expected "+want)
}

func (parser *Parser) expectIdentifier(want string) (string, error) {
	token := parser.lexer.NextToken()
	if token.Type == Identifier {
		return token.Value, nil
	}
	if token.Type == EOF {
		return "", fmt.Errorf("expected %s: %w", want, ErrIncomplete)
	}
	if token.Type == UnterminatedString {
		return "", fmt.Errorf("unterminated string literal: %w", ErrIncomplete)
	}
	return "", parser.errorf(token, "expected "+want)
}

func (parser *Parser) errorf(token Token, msg string) error {
	if token.Type == EOF {
		return fmt.Errorf("%s: %w", msg, ErrIncomplete)
	}
	if token.Type == UnterminatedString {
		return fmt.Errorf("unterminated string literal: %w", ErrIncomplete)
	}
	return &ParseError{Pos: token.Pos, Near: token.Value, Msg: msg}
}
