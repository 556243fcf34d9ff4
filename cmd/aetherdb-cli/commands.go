package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/db"
)

func (cli *CLI) handleCommand(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "\\q", "\\quit", "\\exit":
		fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		os.Exit(0)

	case "\\help", "\\h", "\\?":
		cli.printHelp()

	case "\\login":
		username := auth.BootstrapUser
		if len(parts) > 1 {
			username = parts[1]
		}
		if err := cli.login(username); err != nil {
			fmt.Printf("%s✗ Login failed: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			fmt.Printf("%s✓ Logged in as %s%s\n", SuccessColor, username, ResetColor)
		}

	case "\\adduser":
		if len(parts) != 3 {
			fmt.Printf("%s✗ Usage: \\adduser <name> <admin|user|readonly>%s\n", ErrorColor, ResetColor)
			return
		}
		role, err := auth.ParseRole(parts[2])
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		password, err := promptPassword(fmt.Sprintf("Password for new user %s: ", parts[1]))
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if err := cli.engine.CreateUser(cli.session, parts[1], password, role); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Printf("%s✓ User %s created with role %s%s\n", SuccessColor, parts[1], role, ResetColor)

	case "\\passwd":
		username := cli.session.User
		if len(parts) > 1 {
			username = parts[1]
		}
		password, err := promptPassword(fmt.Sprintf("New password for %s: ", username))
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		confirm, err := promptPassword("Repeat password: ")
		if err != nil || password != confirm {
			fmt.Printf("%s✗ Passwords do not match%s\n", ErrorColor, ResetColor)
			return
		}
		if err := cli.engine.SetPassword(cli.session, username, password); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Printf("%s✓ Password updated for %s%s\n", SuccessColor, username, ResetColor)

	case "\\role":
		if len(parts) != 3 {
			fmt.Printf("%s✗ Usage: \\role <user> <admin|user|readonly>%s\n", ErrorColor, ResetColor)
			return
		}
		role, err := auth.ParseRole(parts[2])
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if err := cli.engine.SetRole(cli.session, parts[1], role); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Printf("%s✓ %s is now %s%s\n", SuccessColor, parts[1], role, ResetColor)

	case "\\grant":
		if len(parts) != 4 {
			fmt.Printf("%s✗ Usage: \\grant <read|write|admin> <table> <user>%s\n", ErrorColor, ResetColor)
			return
		}
		level, err := auth.ParsePermission(parts[1])
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if err := cli.engine.Grant(cli.session, parts[2], parts[3], level); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Printf("%s✓ Granted %s on %s to %s%s\n", SuccessColor, level, parts[2], parts[3], ResetColor)

	case "\\revoke":
		if len(parts) != 3 {
			fmt.Printf("%s✗ Usage: \\revoke <table> <user>%s\n", ErrorColor, ResetColor)
			return
		}
		if err := cli.engine.Revoke(cli.session, parts[1], parts[2]); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Printf("%s✓ Revoked %s from %s%s\n", SuccessColor, parts[1], parts[2], ResetColor)

	case "\\log":
		n := 20
		if len(parts) > 1 {
			parsed, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Printf("%s✗ Usage: \\log [n]%s\n", ErrorColor, ResetColor)
				return
			}
			n = parsed
		}
		entries, err := cli.engine.ReadAudit(cli.session, n)
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		for _, entry := range entries {
			detail := entry.Detail
			if detail != "" {
				detail = " " + detail
			}
			fmt.Printf("  %s  %-10s %-14s %-8s%s\n",
				entry.Time.Format("2006-01-02 15:04:05"), entry.User, entry.Action, entry.Outcome, detail)
		}

	case "\\tables":
		tables, err := cli.engine.Tables(cli.session)
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if len(tables) == 0 {
			fmt.Println("No tables")
			return
		}
		for _, name := range tables {
			fmt.Println("  " + name)
		}

	case "\\save":
		path := cli.snapshotPath
		if len(parts) > 1 {
			path = parts[1]
		}
		if path == "" {
			fmt.Printf("%s✗ Usage: \\save <path> (or start with -snapshot)%s\n", ErrorColor, ResetColor)
			return
		}
		passphrase, err := cli.ensurePassphrase()
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if err := cli.engine.Save(cli.session, path, passphrase); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		cli.snapshotPath = path
		fmt.Printf("%s✓ Saved to %s%s\n", SuccessColor, path, ResetColor)

	case "\\load":
		path := cli.snapshotPath
		if len(parts) > 1 {
			path = parts[1]
		}
		if path == "" {
			fmt.Printf("%s✗ Usage: \\load <path>%s\n", ErrorColor, ResetColor)
			return
		}
		passphrase, err := promptPassword("Passphrase (empty if unencrypted): ")
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		if err := cli.engine.Load(cli.session, path, passphrase); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		cli.snapshotPath = path
		cli.passphrase = passphrase
		fmt.Printf("%s✓ Loaded %s%s\n", SuccessColor, path, ResetColor)

	case "\\i", "\\import":
		if len(parts) != 2 {
			fmt.Printf("%s✗ Usage: \\i <file.sql>%s\n", ErrorColor, ResetColor)
			return
		}
		if err := cli.importFile(parts[1]); err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
		}

	case "\\format":
		if len(parts) == 1 {
			fmt.Printf("Output format: %s\n", cli.format)
			return
		}
		switch parts[1] {
		case "table", "csv", "json", "raw":
			cli.format = parts[1]
			fmt.Printf("%s✓ Output format set to %s%s\n", SuccessColor, parts[1], ResetColor)
		default:
			fmt.Printf("%s✗ Usage: \\format table|csv|json|raw%s\n", ErrorColor, ResetColor)
		}

	case "\\history":
		cli.printHistory()

	case "\\clear":
		fmt.Print("\033[H\033[2J")

	case "\\version":
		fmt.Printf("AetherDB version %s\n", Version)

	default:
		fmt.Printf("%s✗ Unknown command: %s (type \\help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}
}

// ensurePassphrase returns the remembered snapshot passphrase, asking
// (with confirmation) the first time.
func (cli *CLI) ensurePassphrase() (string, error) {
	if cli.passphrase != "" {
		return cli.passphrase, nil
	}
	passphrase, err := promptPassword("Snapshot passphrase (empty to store unencrypted): ")
	if err != nil {
		return "", err
	}
	if passphrase != "" {
		confirm, err := promptPassword("Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if passphrase != confirm {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	cli.passphrase = passphrase
	return passphrase, nil
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sMeta Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  \\help                      Show this help message")
	fmt.Println("  \\q                         Exit the shell")
	fmt.Println("  \\login [user]              Log in as another user")
	fmt.Println("  \\adduser <name> <role>     Create a user (admin only)")
	fmt.Println("  \\passwd [user]             Change a password")
	fmt.Println("  \\role <user> <role>        Change a user's role (admin only)")
	fmt.Println("  \\grant <level> <table> <user>   Grant table access")
	fmt.Println("  \\revoke <table> <user>     Revoke table access")
	fmt.Println("  \\log [n]                   Show recent audit entries (admin only)")
	fmt.Println("  \\tables                    List tables you can read")
	fmt.Println("  \\save [path]               Save an encrypted snapshot")
	fmt.Println("  \\load [path]               Load a snapshot")
	fmt.Println("  \\i <file.sql>              Execute statements from a file")
	fmt.Println("  \\format table|csv|json|raw Set query output format")
	fmt.Println("  \\history                   Show command history")
	fmt.Println()
	fmt.Printf("%s%sSQL Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  CREATE TABLE <table> (<column> <type> [PRIMARY KEY] [NOT NULL], ...);")
	fmt.Println("  INSERT INTO <table> [(<cols>)] VALUES (<vals>);")
	fmt.Println("  SELECT <cols>|* FROM <table> [WHERE <col> <op> <val> [AND ...]];")
	fmt.Println("  UPDATE <table> SET <col> = <val>, ... [WHERE ...];")
	fmt.Println("  DELETE FROM <table> [WHERE ...];")
	fmt.Println("  ALTER TABLE <table> RENAME TO <new>;")
	fmt.Println("  ALTER TABLE <table> ADD COLUMN <col> <type> [DEFAULT <val>];")
	fmt.Println()
	fmt.Printf("%s%sTypes:%s INTEGER, TEXT, BOOLEAN, DATE (YYYY-MM-DD)\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
}

func (cli *CLI) addToHistory(cmd string) {
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}
	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}
	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}
	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}
	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}
	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// display renders a result in the current output format. Only query
// results honor \format; commit results always use the standard display.
func (cli *CLI) display(result db.Result) {
	query, ok := result.(db.QueryResult)
	if !ok || cli.format == "table" {
		result.Display()
		return
	}

	switch cli.format {
	case "csv":
		writer := csv.NewWriter(os.Stdout)
		writer.Write(query.Columns)
		for _, row := range query.Rows {
			record := make([]string, len(row))
			for i, value := range row {
				record[i] = value.String()
			}
			writer.Write(record)
		}
		writer.Flush()

	case "json":
		data, err := json.MarshalIndent(query, "", "  ")
		if err != nil {
			fmt.Printf("%s✗ %v%s\n", ErrorColor, err, ResetColor)
			return
		}
		fmt.Println(string(data))

	case "raw":
		for _, row := range query.Rows {
			cells := make([]string, len(row))
			for i, value := range row {
				cells[i] = value.String()
			}
			fmt.Println(strings.Join(cells, "\t"))
		}
	}
}

// importFile executes the statements in a file, one result line each.
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitStatements(string(data))
	succeeded := 0
	failed := 0

	for i, statement := range statements {
		result, err := cli.engine.Execute(statement, cli.session)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(statement, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			failed++
			continue
		}
		succeeded++
		switch r := result.(type) {
		case db.QueryResult:
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(statement, 50), len(r.Rows), ResetColor)
		default:
			fmt.Printf("%s[%d] ✓ %s%s\n", SuccessColor, i+1, truncate(statement, 50), ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n", SuccessColor, succeeded, failed, ResetColor)
	return nil
}

// splitStatements splits SQL text on semicolons, respecting string
// literals and -- comments. Each returned statement keeps its
// terminating semicolon.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if ch == '\'' || ch == '"' {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			current.WriteByte(ch)
			statement := strings.TrimSpace(current.String())
			if statement != ";" {
				statements = append(statements, statement)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	return statements
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
