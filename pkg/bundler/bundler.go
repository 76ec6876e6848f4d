package bundler

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/netlogic-xing/hack-vm-compiler/pkg/codegen"
	"github.com/netlogic-xing/hack-vm-compiler/pkg/translator"
)

// Bundler records translated units in a sqlite bundle file.
type Bundler struct {
	db *gorm.DB
}

// NewBundler opens (or creates) the bundle at dbPath.
func NewBundler(dbPath string) (*Bundler, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Bundler{db: db}, nil
}

// Migrate performs database migrations.
func (b *Bundler) Migrate() error {
	return Migrate(b.db)
}

// CheckMigration checks if the database schema is up to date.
func (b *Bundler) CheckMigration() (bool, error) {
	return CheckMigration(b.db)
}

// EnsureSchema migrates a fresh bundle and refuses an existing one whose
// schema is out of date unless allowMigrate is set.
func (b *Bundler) EnsureSchema(fileExisted bool, allowMigrate bool) error {
	upToDate, err := b.CheckMigration()
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if upToDate {
		return nil
	}
	if fileExisted && !allowMigrate {
		return fmt.Errorf("database schema is not up to date, migrate it first")
	}
	if err := b.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ProcessUnit stores a translated unit, replacing any earlier unit of the
// same name.
func (b *Bundler) ProcessUnit(name string, result *translator.Result, assembly string) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&Symbol{}, &CallSite{}, &Function{}, &SourceFile{}, &EntryPoint{}} {
			if err := tx.Where("unit_name = ?", name).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear previous unit: %w", err)
			}
		}

		unit := Unit{
			Name:         name,
			Assembly:     assembly,
			Bootstrap:    result.Bootstrap,
			Instructions: result.Instructions,
			Size:         result.Symbols.Size(),
		}
		if err := tx.Save(&unit).Error; err != nil {
			return fmt.Errorf("failed to save unit: %w", err)
		}

		for i, file := range result.Files {
			sf := SourceFile{
				UnitName:     name,
				FileName:     file.Name,
				Position:     i,
				Synthesized:  file.Synthesized,
				Instructions: file.Instructions,
				Contents:     file.Text,
			}
			if err := tx.Save(&sf).Error; err != nil {
				return fmt.Errorf("failed to save source file: %w", err)
			}
		}

		for _, fn := range result.Functions {
			row := Function{UnitName: name, IdName: fn.Name, FileName: fn.File, NLocals: fn.NLocals, LineNumber: fn.LineNumber}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save function: %w", err)
			}
		}

		for _, call := range result.Calls {
			row := CallSite{UnitName: name, LineNumber: call.LineNumber, Caller: call.Caller, Callee: call.Callee, NArgs: call.NArgs}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save call site: %w", err)
			}
			if result.Bootstrap && call.LineNumber == codegen.BootstrapLineNumber {
				if err := tx.Save(&EntryPoint{UnitName: name, IdName: call.Callee}).Error; err != nil {
					return fmt.Errorf("failed to save entry point: %w", err)
				}
			}
		}

		for _, e := range result.Symbols.Entries() {
			row := Symbol{
				UnitName:   name,
				Name:       e.Name,
				Address:    e.Address,
				Kind:       e.Kind,
				FileName:   e.File,
				Function:   e.Function,
				LineNumber: e.LineNumber,
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save symbol: %w", err)
			}
		}
		return nil
	})
}

// Callers lists the functions of a unit that call callee, by name.
func (b *Bundler) Callers(unit string, callee string) ([]string, error) {
	var callers []string
	err := b.db.Model(&CallSite{}).
		Where("unit_name = ? AND callee = ?", unit, callee).
		Distinct().
		Order("caller").
		Pluck("caller", &callers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query callers: %w", err)
	}
	return callers, nil
}

// LoadAssembly returns the stored assembly of a unit.
func (b *Bundler) LoadAssembly(unit string) (string, error) {
	var u Unit
	if err := b.db.First(&u, "name = ?", unit).Error; err != nil {
		return "", fmt.Errorf("failed to load unit '%s': %w", unit, err)
	}
	return u.Assembly, nil
}

// Close closes the database connection.
func (b *Bundler) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
