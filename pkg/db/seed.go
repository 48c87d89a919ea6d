package db

import (
	_ "embed"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var embeddedSeed []byte

// seedCategory mirrors the structure of seed.yaml.
type seedCategory struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Color    string         `yaml:"color"`
	Icon     string         `yaml:"icon"`
	Children []seedCategory `yaml:"children"`
}

type seedRule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
	Priority int    `yaml:"priority"`
}

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
	Rules      []seedRule     `yaml:"rules"`
}

// Seed applies the embedded default data: the reserved manual account, the
// default category tree and the starter rules. It is idempotent — existing
// categories are left alone and rules are only seeded into an empty rules
// table, so user edits survive restarts.
func Seed(conn *Connection, accountingCurrency string) error {
	var seed seedFile
	if err := yaml.Unmarshal(embeddedSeed, &seed); err != nil {
		return fmt.Errorf("failed to parse embedded seed data: %w", err)
	}

	// Reserved manual/cash account, exempt from remote sync.
	_, err := conn.Exec(`
		INSERT OR IGNORE INTO accounts (id, display_name, currency, balance)
		VALUES (?, 'Cash', ?, 0)`,
		model.ManualAccountID, accountingCurrency,
	)
	if err != nil {
		return fmt.Errorf("failed to seed manual account: %w", err)
	}

	categories := NewCategoryStore(conn)
	for _, root := range seed.Categories {
		rootID, err := seedOneCategory(conn, categories, root, nil)
		if err != nil {
			return err
		}
		for _, child := range root.Children {
			// Children inherit the root's type unless they set their own.
			if child.Type == "" {
				child.Type = root.Type
			}
			if _, err := seedOneCategory(conn, categories, child, &rootID); err != nil {
				return err
			}
		}
	}

	rules := NewRuleStore(conn)
	count, err := rules.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, r := range seed.Rules {
		cat, err := categories.GetByName(r.Category)
		if err != nil {
			return fmt.Errorf("seed rule %q references unknown category %q: %w", r.Pattern, r.Category, err)
		}
		if _, err := rules.Create(model.Rule{
			Pattern:    r.Pattern,
			CategoryID: cat.ID,
			Priority:   r.Priority,
			Active:     true,
		}); err != nil {
			return err
		}
	}

	return nil
}

// seedOneCategory inserts a category if its name is not taken and returns
// the id of the existing or new row.
func seedOneCategory(conn *Connection, store *CategoryStore, c seedCategory, parentID *int64) (int64, error) {
	existing, err := store.GetByName(c.Name)
	if err == nil {
		return existing.ID, nil
	}
	if err != ErrNotFound {
		return 0, err
	}

	id, err := store.Create(model.Category{
		Name:     c.Name,
		Type:     model.CategoryType(c.Type),
		Color:    c.Color,
		Icon:     c.Icon,
		ParentID: parentID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed category %q: %w", c.Name, err)
	}
	return id, nil
}
