package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 5432, "TCP port to listen on")
	snapshot := flag.String("snapshot", "", "Snapshot file or URL to load on start and save on shutdown")
	passphrase := flag.String("passphrase", "", "Snapshot passphrase (AETHERDB_PASSPHRASE env overrides)")
	auditPath := flag.String("audit", "", "Audit log file (in-memory if empty)")
	jwtSecret := flag.String("jwt-secret", "", "HS256 secret for session tokens (random if empty)")
	s3Region := flag.String("s3-region", "", "AWS region for s3:// snapshot URLs")
	s3Endpoint := flag.String("s3-endpoint", "", "Custom S3-compatible endpoint")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("AetherDB server v%s\n", Version)
		return
	}

	if env := os.Getenv("AETHERDB_PASSPHRASE"); env != "" {
		*passphrase = env
	}

	secret := *jwtSecret
	if secret == "" {
		// Tokens from earlier runs will not validate, logins still work
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
		log.Println("No -jwt-secret given, generated an ephemeral one")
	}

	instance := aetherdb.Open(*auditPath)
	engine := instance.Engine()
	if *s3Region != "" || *s3Endpoint != "" {
		engine.Remote = &ps.RemoteConfig{Region: *s3Region, Endpoint: *s3Endpoint}
	}

	// Snapshots are loaded and saved under the bootstrap identity;
	// clients still authenticate as themselves.
	if *snapshot != "" {
		boot, err := engine.Resume(auth.BootstrapUser)
		if err != nil {
			log.Fatalf("Failed to open bootstrap session: %v", err)
		}
		if _, statErr := os.Stat(*snapshot); statErr == nil || !isLocalPath(*snapshot) {
			if err := engine.Load(boot, *snapshot, *passphrase); err != nil {
				log.Fatalf("Failed to load snapshot %s: %v", *snapshot, err)
			}
			log.Printf("Loaded snapshot %s", *snapshot)
		} else {
			log.Printf("Snapshot %s not found, starting empty", *snapshot)
		}
	}

	server := NewServer(engine, secret)
	if err := server.Start(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   AetherDB Server v%-18s ║\n", Version)
	fmt.Println("║   Encrypted SQL Database Engine       ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d\n", *port)
	fmt.Println("Authenticate with AUTH LOGIN <user> [password], then send SQL, 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()

	if *snapshot != "" {
		boot, err := engine.Resume(auth.BootstrapUser)
		if err == nil {
			err = engine.Save(boot, *snapshot, *passphrase)
		}
		if err != nil {
			log.Printf("Failed to save snapshot %s: %v", *snapshot, err)
		} else {
			log.Printf("Saved snapshot %s", *snapshot)
		}
	}
	log.Println("Server stopped")
}

func isLocalPath(path string) bool {
	for _, prefix := range []string{"s3://", "http://", "https://", "file://"} {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return false
		}
	}
	return true
}
