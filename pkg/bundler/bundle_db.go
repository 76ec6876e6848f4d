package bundler

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Unit is one translated compilation unit and its generated assembly.
type Unit struct {
	Name         string `gorm:"primaryKey"`
	Assembly     string
	Bootstrap    bool
	Instructions int
	Size         int
}

// EntryPoint records the function the bootstrap of a unit calls.
type EntryPoint struct {
	UnitName string `gorm:"primaryKey"`
	IdName   string
}

// SourceFile stores the VM source of each file in translation order.
type SourceFile struct {
	UnitName     string `gorm:"primaryKey"`
	FileName     string `gorm:"primaryKey"`
	Position     int
	Synthesized  bool
	Instructions int
	Contents     string
}

// Function records a function declaration.
type Function struct {
	UnitName   string `gorm:"primaryKey"`
	IdName     string `gorm:"primaryKey"`
	FileName   string
	NLocals    int
	LineNumber int
}

// CallSite records a call; the line number is unique within a unit.
type CallSite struct {
	UnitName   string `gorm:"primaryKey"`
	LineNumber int    `gorm:"primaryKey;autoIncrement:false"`
	Caller     string `gorm:"index"`
	Callee     string `gorm:"index"`
	NArgs      int
}

// Symbol is a symbol table entry.
type Symbol struct {
	UnitName   string `gorm:"primaryKey"`
	Name       string `gorm:"primaryKey"`
	Address    int
	Kind       string
	FileName   string
	Function   string
	LineNumber int
}

// getMigrations returns the list of migrations for the bundle database.
func getMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202610170001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&Unit{},
					&EntryPoint{},
					&SourceFile{},
					&Function{},
					&CallSite{},
					&Symbol{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&Symbol{},
					&CallSite{},
					&Function{},
					&SourceFile{},
					&EntryPoint{},
					&Unit{},
				)
			},
		},
	}
}

// Migrate performs database migrations using gormigrate.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, getMigrations())
	return m.Migrate()
}

// CheckMigration checks if the database schema is up to date.
func CheckMigration(db *gorm.DB) (bool, error) {
	// A missing migrations table means nothing has been applied yet. Use a
	// silent logger to avoid spurious warnings on fresh databases.
	var lastMigration string
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Table(gormigrate.DefaultOptions.TableName).
		Select("id").
		Order("id DESC").
		Limit(1).
		Scan(&lastMigration).Error

	if err != nil {
		return false, nil
	}

	migrations := getMigrations()
	if len(migrations) == 0 {
		return true, nil
	}

	expectedLastID := migrations[len(migrations)-1].ID
	return lastMigration == expectedLastID, nil
}
