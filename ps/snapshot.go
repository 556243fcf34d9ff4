package ps

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
)

// Snapshot file layout, innermost first:
//
//	plaintext  = magic "AETH" || version byte || CBOR payload
//	encrypted  = salt || nonce || AES-256-GCM(plaintext)
//
// A file saved without a passphrase is the plaintext form; the magic
// at offset 0 tells the two apart on load.
const (
	magic = "AETH"

	// FormatVersion is the current snapshot payload version. Older
	// versions load if a migration exists; newer ones are rejected.
	FormatVersion = 1
)

// FormatError marks bytes that are not a readable snapshot: bad magic,
// an unsupported version, or a payload that does not decode.
type FormatError struct {
	Version int
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("unsupported snapshot version %d: %s", e.Version, e.Reason)
	}
	return "invalid snapshot: " + e.Reason
}

// TableSnapshot is one table's durable form.
type TableSnapshot struct {
	Schema core.Table `cbor:"schema"`
	Rows   []core.Row `cbor:"rows"`
}

// Snapshot is the whole-database durable form: every table plus the
// complete access-control state.
type Snapshot struct {
	Tables []TableSnapshot    `cbor:"tables"`
	Users  []auth.UserRecord  `cbor:"users"`
	Grants []auth.GrantRecord `cbor:"grants"`
}

// Encode serializes a snapshot to its plaintext form.
func Encode(snap Snapshot) ([]byte, error) {
	payload, err := cbor.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	out := make([]byte, 0, len(magic)+1+len(payload))
	out = append(out, magic...)
	out = append(out, byte(FormatVersion))
	return append(out, payload...), nil
}

// Decode parses the plaintext snapshot form.
func Decode(data []byte) (Snapshot, error) {
	if len(data) < len(magic)+1 {
		return Snapshot{}, &FormatError{Reason: "file too short"}
	}
	if !bytes.HasPrefix(data, []byte(magic)) {
		return Snapshot{}, &FormatError{Reason: "bad magic"}
	}
	version := int(data[len(magic)])
	if version < 1 || version > FormatVersion {
		return Snapshot{}, &FormatError{Version: version, Reason: "this build reads versions 1 through " + fmt.Sprint(FormatVersion)}
	}

	var snap Snapshot
	if err := cbor.Unmarshal(data[len(magic)+1:], &snap); err != nil {
		return Snapshot{}, &FormatError{Reason: "payload does not decode: " + err.Error()}
	}
	return snap, nil
}

// Save writes a snapshot to a path or URL. A non-empty passphrase
// encrypts the whole file. Local writes go through a temp file and
// rename, so a crash mid-write never corrupts an existing snapshot.
func Save(path string, snap Snapshot, passphrase string, cfg *RemoteConfig) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if passphrase != "" {
		data, err = encrypt(data, passphrase)
		if err != nil {
			return err
		}
	}

	scheme := detectScheme(path)
	if scheme == schemeLocal || scheme == schemeFile {
		return writeFileAtomic(strings.TrimPrefix(path, "file://"), data)
	}

	w, err := openRemoteWriter(path, cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return w.Close()
}

// Load reads a snapshot from a path or URL. Plaintext snapshots are
// recognized by their magic; anything else is treated as encrypted and
// requires the passphrase.
func Load(path, passphrase string, cfg *RemoteConfig) (Snapshot, error) {
	r, err := openRemoteReader(path, cfg)
	if err != nil {
		return Snapshot{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	if bytes.HasPrefix(data, []byte(magic)) {
		return Decode(data)
	}

	if passphrase == "" {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", path, ErrDecrypt)
	}
	plain, err := decrypt(data, passphrase)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(plain)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".aetherdb-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
