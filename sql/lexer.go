package sql

type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset of the token start
}

type TokenType int

const (
	Identifier TokenType = iota
	String
	Int
	Comma
	ParenOpen
	ParenClose
	Semicolon
	Wildcard
	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Not
	Null
	True
	False
	Select
	From
	Where
	Insert
	Into
	Values
	Update
	Set
	Delete
	Create
	TableKeyword
	Alter
	Add
	Column
	Rename
	To
	Default
	PrimaryKey
	EOF
	UnterminatedString
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Comma:
		return "Comma"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Semicolon:
		return "Semicolon"
	case Wildcard:
		return "Wildcard"
	case Equals:
		return "Equals"
	case NotEquals:
		return "NotEquals"
	case LessThan:
		return "LessThan"
	case GreaterThan:
		return "GreaterThan"
	case LessThanOrEqual:
		return "LessThanOrEqual"
	case GreaterThanOrEqual:
		return "GreaterThanOrEqual"
	case And:
		return "And"
	case Not:
		return "Not"
	case Null:
		return "Null"
	case True:
		return "True"
	case False:
		return "False"
	case Select:
		return "Select"
	case From:
		return "From"
	case Where:
		return "Where"
	case Insert:
		return "Insert"
	case Into:
		return "Into"
	case Values:
		return "Values"
	case Update:
		return "Update"
	case Set:
		return "Set"
	case Delete:
		return "Delete"
	case Create:
		return "Create"
	case TableKeyword:
		return "Table"
	case Alter:
		return "Alter"
	case Add:
		return "Add"
	case Column:
		return "Column"
	case Rename:
		return "Rename"
	case To:
		return "To"
	case Default:
		return "Default"
	case PrimaryKey:
		return "PrimaryKey"
	case EOF:
		return "EOF"
	case UnterminatedString:
		return "UnterminatedString"
	default:
		return "Unknown(" + token.Value + ")"
	}
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()
	pos := lexer.position

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch), Pos: pos}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch), Pos: pos}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch), Pos: pos}
	case ';':
		token = Token{Type: Semicolon, Value: string(lexer.ch), Pos: pos}
	case '*':
		token = Token{Type: Wildcard, Value: string(lexer.ch), Pos: pos}
	case 0:
		token = Token{Type: EOF, Value: "", Pos: pos}
	case '\'', '"':
		str, terminated := lexer.readString(lexer.ch)
		if !terminated {
			return Token{Type: UnterminatedString, Value: str, Pos: pos}
		}
		return Token{Type: String, Value: str, Pos: pos}
	default:
		if isOperator(lexer.ch) {
			operator := lexer.readOperator()
			switch operator {
			case "=":
				return Token{Type: Equals, Value: operator, Pos: pos}
			case "!=", "<>":
				return Token{Type: NotEquals, Value: operator, Pos: pos}
			case "<":
				return Token{Type: LessThan, Value: operator, Pos: pos}
			case ">":
				return Token{Type: GreaterThan, Value: operator, Pos: pos}
			case "<=":
				return Token{Type: LessThanOrEqual, Value: operator, Pos: pos}
			case ">=":
				return Token{Type: GreaterThanOrEqual, Value: operator, Pos: pos}
			default:
				return Token{Type: Unknown, Value: operator, Pos: pos}
			}
		} else if isDigit(lexer.ch) || (lexer.ch == '-' && isDigit(lexer.peekChar())) {
			return Token{Type: Int, Value: lexer.readNumber(), Pos: pos}
		} else if isAlphaNumeric(lexer.ch) {
			literal := lexer.readIdentifier()
			if toUpper(literal) == "PRIMARY" {
				lexer.skipWhitespace()
				next := lexer.readIdentifier()
				if toUpper(next) == "KEY" {
					return Token{Type: PrimaryKey, Value: "PRIMARY KEY", Pos: pos}
				}
				return Token{Type: Unknown, Value: literal + " " + next, Pos: pos}
			}
			return Token{Type: lookupIdentifier(literal), Value: literal, Pos: pos}
		} else {
			token = Token{Type: Unknown, Value: string(lexer.ch), Pos: pos}
		}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	// Save current state
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	// Restore state
	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isAlphaNumeric(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString consumes a quoted string literal. Doubling the quote
// character escapes it ('it''s' reads as "it's"). The second return is
// false if the closing quote is missing.
func (lexer *Lexer) readString(quote byte) (string, bool) {
	lexer.readChar() // skip opening quote
	var out []byte
	for {
		if lexer.ch == 0 {
			return string(out), false
		}
		if lexer.ch == quote {
			if lexer.peekChar() == quote {
				out = append(out, quote)
				lexer.readChar()
				lexer.readChar()
				continue
			}
			lexer.readChar() // skip closing quote
			return string(out), true
		}
		out = append(out, lexer.ch)
		lexer.readChar()
	}
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	if lexer.ch == '-' {
		lexer.readChar()
	}
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func (lexer *Lexer) readOperator() string {
	position := lexer.position
	for isOperator(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func isAlphaNumeric(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isOperator(ch byte) bool {
	return ch == '=' || ch == '!' || ch == '<' || ch == '>'
}

// lookupIdentifier maps keywords case-insensitively; anything else is an
// identifier, which stays case-sensitive.
func lookupIdentifier(id string) TokenType {
	switch toUpper(id) {
	case "AND":
		return And
	case "NOT":
		return Not
	case "NULL":
		return Null
	case "TRUE":
		return True
	case "FALSE":
		return False
	case "SELECT":
		return Select
	case "FROM":
		return From
	case "WHERE":
		return Where
	case "INSERT":
		return Insert
	case "INTO":
		return Into
	case "VALUES":
		return Values
	case "UPDATE":
		return Update
	case "SET":
		return Set
	case "DELETE":
		return Delete
	case "CREATE":
		return Create
	case "TABLE":
		return TableKeyword
	case "ALTER":
		return Alter
	case "ADD":
		return Add
	case "COLUMN":
		return Column
	case "RENAME":
		return Rename
	case "TO":
		return To
	case "DEFAULT":
		return Default
	default:
		return Identifier
	}
}

// toUpper converts a string to uppercase without allocating for ASCII strings
func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			// Need to convert, allocate a new string
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}
