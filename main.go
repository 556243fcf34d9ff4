package aetherdb

import (
	"log"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/audit"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/auth"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/db"
	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/ps"
)

type Instance struct {
	Store  *ps.Store
	Access *auth.Manager
	Audit  *audit.Log
}

// Open creates a fresh instance: an empty store, the bootstrap admin
// user, and an audit log at auditPath (in-memory when empty).
func Open(auditPath string) *Instance {
	access := auth.NewManager()
	access.Bootstrap()

	auditLog := audit.NewLog(auditPath)
	if err := auditLog.Load(); err != nil {
		// A damaged audit file must not stop the database, but the
		// operator needs to hear about it
		log.Printf("audit: %v", err)
	}

	return &Instance{
		Store:  ps.NewStore(),
		Access: access,
		Audit:  auditLog,
	}
}

func (instance *Instance) Engine() *db.Engine {
	return db.NewEngine(instance.Store, instance.Access, instance.Audit)
}
