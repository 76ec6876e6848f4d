package bundler

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/translator"
)

func translate(t *testing.T, src string) (*translator.Result, string) {
	t.Helper()
	var out bytes.Buffer
	result, err := translator.NewTranslator(nil).Translate(context.Background(),
		[]translator.Source{translator.StringSource("Main", src)}, &out)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	return result, out.String()
}

func openBundle(t *testing.T) *Bundler {
	t.Helper()
	b, err := NewBundler(filepath.Join(t.TempDir(), "bundle.db"))
	if err != nil {
		t.Fatalf("NewBundler failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	if err := b.EnsureSchema(false, false); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return b
}

const program = `function Main.main 0
push constant 2
call Main.twice 1
return
function Main.twice 0
push argument 0
push argument 0
add
return
`

func TestMigrationIsUpToDate(t *testing.T) {
	b := openBundle(t)
	upToDate, err := b.CheckMigration()
	if err != nil {
		t.Fatalf("CheckMigration failed: %v", err)
	}
	if !upToDate {
		t.Errorf("Expected the schema to be up to date after EnsureSchema")
	}
}

func TestExistingStaleBundleNeedsMigrate(t *testing.T) {
	b, err := NewBundler(filepath.Join(t.TempDir(), "bundle.db"))
	if err != nil {
		t.Fatalf("NewBundler failed: %v", err)
	}
	defer b.Close()
	if err := b.EnsureSchema(true, false); err == nil {
		t.Errorf("Expected an error for an unmigrated existing bundle")
	}
	if err := b.EnsureSchema(true, true); err != nil {
		t.Errorf("Expected migration to be allowed, got %v", err)
	}
}

func TestProcessUnit(t *testing.T) {
	b := openBundle(t)
	result, assembly := translate(t, program)
	if err := b.ProcessUnit("Prog", result, assembly); err != nil {
		t.Fatalf("ProcessUnit failed: %v", err)
	}

	stored, err := b.LoadAssembly("Prog")
	if err != nil {
		t.Fatalf("LoadAssembly failed: %v", err)
	}
	if stored != assembly {
		t.Errorf("Stored assembly differs from the generated one")
	}

	callers, err := b.Callers("Prog", "Main.twice")
	if err != nil {
		t.Fatalf("Callers failed: %v", err)
	}
	if len(callers) != 1 || callers[0] != "Main.main" {
		t.Errorf("Expected [Main.main], got %v", callers)
	}

	var entry EntryPoint
	if err := b.db.First(&entry, "unit_name = ?", "Prog").Error; err != nil {
		t.Fatalf("Entry point not stored: %v", err)
	}
	if entry.IdName != "Sys.init" {
		t.Errorf("Expected Sys.init, got %s", entry.IdName)
	}

	var files []SourceFile
	if err := b.db.Order("position").Find(&files, "unit_name = ?", "Prog").Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(files) != 2 || files[0].FileName != "Sys" || !files[0].Synthesized || files[1].Contents != program {
		t.Errorf("Unexpected source files %+v", files)
	}
}

func TestEntryPointIgnoresCallsOutsideFunctions(t *testing.T) {
	b := openBundle(t)
	var out bytes.Buffer
	result, err := translator.NewTranslator(nil).Translate(context.Background(), []translator.Source{
		translator.StringSource("Sys", "call Main.main 0\nfunction Sys.init 0\nlabel END\ngoto END\n"),
		translator.StringSource("Main", "function Main.main 0\npush constant 0\nreturn\n"),
	}, &out)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if err := b.ProcessUnit("Prog", result, out.String()); err != nil {
		t.Fatalf("ProcessUnit failed: %v", err)
	}
	var entries []EntryPoint
	if err := b.db.Find(&entries, "unit_name = ?", "Prog").Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 || entries[0].IdName != "Sys.init" {
		t.Errorf("Expected the single entry point Sys.init, got %+v", entries)
	}
}

func TestProcessUnitReplacesUnit(t *testing.T) {
	b := openBundle(t)
	result, assembly := translate(t, program)
	if err := b.ProcessUnit("Prog", result, assembly); err != nil {
		t.Fatalf("ProcessUnit failed: %v", err)
	}
	result, assembly = translate(t, "function Main.main 0\npush constant 0\nreturn\n")
	if err := b.ProcessUnit("Prog", result, assembly); err != nil {
		t.Fatalf("ProcessUnit failed: %v", err)
	}

	callers, err := b.Callers("Prog", "Main.twice")
	if err != nil {
		t.Fatalf("Callers failed: %v", err)
	}
	if len(callers) != 0 {
		t.Errorf("Expected stale call sites to be gone, got %v", callers)
	}
	var count int64
	b.db.Model(&Function{}).Where("unit_name = ?", "Prog").Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 functions, got %d", count)
	}
}

func TestLoadAssemblyUnknownUnit(t *testing.T) {
	b := openBundle(t)
	if _, err := b.LoadAssembly("missing"); err == nil {
		t.Errorf("Expected an error for an unknown unit")
	}
}
