package db

import (
	"database/sql"
	"fmt"

	"github.com/darcoto/mymoney2/pkg/model"
)

// CategoryStore manages the two-level category tree.
type CategoryStore struct {
	conn *Connection
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(conn *Connection) *CategoryStore {
	return &CategoryStore{conn: conn}
}

// Create inserts a category and returns its id. Names are globally unique.
// A parent must itself be a root category; deeper nesting is not modeled.
func (s *CategoryStore) Create(c model.Category) (int64, error) {
	if c.Name == "" {
		return 0, fmt.Errorf("category name cannot be empty")
	}

	if c.ParentID != nil {
		parent, err := s.GetByID(*c.ParentID)
		if err != nil {
			return 0, fmt.Errorf("parent category %d: %w", *c.ParentID, err)
		}
		if parent.ParentID != nil {
			return 0, fmt.Errorf("category %q: parent %q is not a root category", c.Name, parent.Name)
		}
	}

	res, err := s.conn.Exec(`
		INSERT INTO categories (name, type, color, icon, parent_id)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, string(c.Type), c.Color, c.Icon, c.ParentID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create category %q: %w", c.Name, err)
	}
	return res.LastInsertId()
}

const selectCategory = "SELECT id, name, type, color, icon, parent_id FROM categories"

func scanCategory(r rowScanner) (*model.Category, error) {
	var c model.Category
	var catType string
	if err := r.Scan(&c.ID, &c.Name, &catType, &c.Color, &c.Icon, &c.ParentID); err != nil {
		return nil, err
	}
	c.Type = model.CategoryType(catType)
	return &c, nil
}

// GetByID retrieves a single category.
func (s *CategoryStore) GetByID(id int64) (*model.Category, error) {
	row := s.conn.QueryRow(selectCategory+" WHERE id = ?", id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return c, nil
}

// GetByName retrieves a category by its unique name.
func (s *CategoryStore) GetByName(name string) (*model.Category, error) {
	row := s.conn.QueryRow(selectCategory+" WHERE name = ?", name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	return c, nil
}

// GetAll returns every category, roots before children.
func (s *CategoryStore) GetAll() ([]model.Category, error) {
	rows, err := s.conn.Query(selectCategory + " ORDER BY parent_id IS NOT NULL, parent_id, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var result []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// Delete removes a category. The schema's foreign keys cascade: dependent
// transactions lose their category_id (SET NULL), dependent rules are
// deleted, and child categories become roots.
func (s *CategoryStore) Delete(id int64) error {
	res, err := s.conn.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
