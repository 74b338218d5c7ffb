package backend

import (
	"context"
	"path/filepath"
	"testing"

	"spendly/internal/config"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

func TestBackendTypes(t *testing.T) {
	if !SQLiteBackend.IsValid() || !MemoryBackend.IsValid() || DataBackendType("sheets").IsValid() {
		t.Error("unexpected data backend validity")
	}
	if !FirebaseAuth.IsValid() || !NoAuth.IsValid() || AuthBackendType("ldap").IsValid() {
		t.Error("unexpected auth backend validity")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{DataBackend: "memory", AuthBackend: "firebase", SnapshotName: "default"}
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for firebase without credentials")
	}

	app.FirebaseAPIKey, app.FirebaseProjectID = "key", "demo"
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Data != MemoryBackend || cfg.Auth != FirebaseAuth || cfg.FirebaseProjectID != "demo" {
		t.Errorf("unexpected conversion %+v", cfg)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(applog.Discard()).CreateBackend(ctx, Config{Data: MemoryBackend, Auth: MemoryAuth})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Identity == nil || res.Documents == nil {
		t.Fatal("memory auth should provide identity and documents")
	}
	if err := res.Persister.Save(ctx, core.Snapshot{Expenses: make([]core.Expense, 1)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, found, err := res.Persister.Load(ctx)
	if err != nil || !found || len(snap.Expenses) != 1 {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

func TestCreateBackend_SQLiteWithoutAuth(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Data:         SQLiteBackend,
		Auth:         NoAuth,
		SQLiteDBPath: filepath.Join(t.TempDir(), "spendly.db"),
		SnapshotName: "default",
	}
	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}

	if res.Identity != nil || res.Documents != nil {
		t.Fatal("no auth backend should leave profile sync unconfigured")
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := res.Persister.Save(ctx, core.Snapshot{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Data: "sheets", Auth: NoAuth})
	if err == nil {
		t.Fatal("expected error for invalid backend type")
	}
}
