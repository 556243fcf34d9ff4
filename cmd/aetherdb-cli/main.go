package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/db"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/sql"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	WarnColor    = "\033[33m" // Yellow
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the shell state.
type CLI struct {
	engine       *db.Engine
	session      *auth.Session
	snapshotPath string
	passphrase   string
	format       string
	history      []string
	historyFile  string
}

func main() {
	snapshot := flag.String("snapshot", "", "Snapshot file or URL to load on start and save to")
	auditPath := flag.String("audit", "", "Audit log file (in-memory if empty)")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	user := flag.String("user", auth.BootstrapUser, "Username to log in as")
	s3Region := flag.String("s3-region", "", "AWS region for s3:// snapshot URLs")
	s3Endpoint := flag.String("s3-endpoint", "", "Custom S3-compatible endpoint")
	s3AccessKey := flag.String("s3-access-key", "", "S3 access key (default credential chain if empty)")
	s3SecretKey := flag.String("s3-secret-key", "", "S3 secret key")
	flag.Parse()

	printBanner()

	instance := aetherdb.Open(*auditPath)
	engine := instance.Engine()
	if *s3Region != "" || *s3Endpoint != "" || *s3AccessKey != "" {
		engine.Remote = &ps.RemoteConfig{
			Region:    *s3Region,
			Endpoint:  *s3Endpoint,
			AccessKey: *s3AccessKey,
			SecretKey: *s3SecretKey,
		}
	}

	cli := &CLI{
		engine:       engine,
		snapshotPath: *snapshot,
		format:       "table",
		historyFile:  getHistoryPath(),
	}
	cli.loadHistory()

	if *snapshot != "" {
		if err := cli.loadSnapshot(*snapshot); err != nil {
			fmt.Printf("%s✗ Error loading snapshot: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
	}

	if err := cli.login(*user); err != nil {
		fmt.Printf("%s✗ Login failed: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%s✗ Error importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("AetherDB v%s", Version)
	padding := bannerWidth - len(versionLine) - 2
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Encrypted SQL Database Engine       ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type \\help for commands, \\q to exit")
	fmt.Println()
}

// loadSnapshot restores the database before login, using the built-in
// bootstrap identity. The snapshot brings its own users along.
func (cli *CLI) loadSnapshot(path string) error {
	passphrase, err := promptPassword(fmt.Sprintf("Passphrase for %s (empty if unencrypted): ", path))
	if err != nil {
		return err
	}

	boot, err := cli.engine.Resume(auth.BootstrapUser)
	if err != nil {
		return err
	}
	if err := cli.engine.Load(boot, path, passphrase); err != nil {
		return err
	}
	cli.passphrase = passphrase
	fmt.Printf("%s✓ Loaded %s%s\n", SuccessColor, path, ResetColor)
	return nil
}

func (cli *CLI) login(username string) error {
	password, err := promptPassword(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return err
	}

	session, err := cli.engine.Authenticate(username, password)
	if err != nil {
		return err
	}
	cli.session = session

	if cli.engine.Access.HasDefaultPassword() {
		fmt.Printf("%s! The %s user has no password set. Use \\passwd to set one.%s\n",
			WarnColor, auth.BootstrapUser, ResetColor)
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		// Piped input: read a plain line
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var buffer strings.Builder

	for {
		fmt.Print(cli.getPrompt(buffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			cli.saveHistory()
			return
		}

		input = strings.TrimRight(input, "\r\n")
		if strings.TrimSpace(input) == "" {
			continue
		}

		// Meta-commands only at the start of a statement
		if buffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), "\\") {
			cli.handleCommand(strings.TrimSpace(input))
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(input)

		statement := buffer.String()
		result, err := cli.engine.Execute(statement, cli.session)
		if errors.Is(err, sql.ErrIncomplete) {
			// Keep reading lines until the statement terminates
			continue
		}

		buffer.Reset()
		cli.addToHistory(statement)

		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			cli.display(result)
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%saetherdb (%s)>%s ", PromptColor, cli.session.User, ResetColor)
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aetherdb_history")
}
