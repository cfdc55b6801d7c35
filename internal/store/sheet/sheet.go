// Package sheet keeps the shop ledgers in an .xlsx workbook, one sheet per
// ledger with a header row, so the books stay readable in any spreadsheet
// program. Edits made to the file outside this process are picked up on the
// next call.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

const usersSheet = "Users"

var usersHeader = []string{"Username", "Password Hash", "Role", "Active", "Created At"}

type userRow struct {
	account domain.UserAccount
	row     int
}

type Store struct {
	mu      sync.Mutex
	path    string
	modTime time.Time
	size    int64

	ledgers  map[string]*ledger.Arena
	nextRow  map[string]int
	users    map[string]userRow
	nextUser int
}

// New opens the workbook at path, creating it with empty ledgers and the
// seeded staff accounts when it does not exist yet.
func New(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("workbook path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Store{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.create(); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
		log.Printf("[sheet-store] created workbook %s", path)
	} else if err != nil {
		return nil, err
	}

	if err := s.ensureSheets(); err != nil {
		return nil, fmt.Errorf("prepare workbook: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load workbook: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Fetch(ctx context.Context, name string) ([]ledger.Row, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s.ledgers[schema.Name].Rows(), nil
}

func (s *Store) Append(ctx context.Context, name string, row ledger.Row) error {
	schema, err := store.Schema(name)
	if err != nil {
		return err
	}
	if len(row) == 0 {
		return store.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return err
	}

	target := s.nextRow[schema.Name]
	if err := s.writeRow(schema.Name, target, row); err != nil {
		return fmt.Errorf("append %s: %w", schema.Name, err)
	}
	s.ledgers[schema.Name].Append(row)
	s.nextRow[schema.Name] = target + 1
	return nil
}

func (s *Store) Latest(ctx context.Context, name string, key string) (ledger.Row, bool, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, false, err
	}
	if !schema.Keyed() {
		return nil, false, store.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, false, err
	}
	row, ok := s.ledgers[schema.Name].Latest(key)
	return row, ok, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return err
	}
	if _, exists := s.users[username]; exists {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Username = username

	target := s.nextUser
	if err := s.writeRow(usersSheet, target, encodeUser(user)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	s.users[username] = userRow{account: user, row: target}
	s.nextUser = target + 1
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return nil, err
	}
	users := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.account)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(); err != nil {
		return err
	}
	existing, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	existing.account.Password = password
	if err := s.writeRow(usersSheet, existing.row, encodeUser(existing.account)); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.users[username] = existing
	return nil
}

func (s *Store) create() error {
	f := excelize.NewFile()
	defer f.Close()

	schemas := ledger.Schemas()
	if err := f.SetSheetName("Sheet1", schemas[0].Name); err != nil {
		return err
	}
	for _, schema := range schemas {
		if err := addSheet(f, schema.Name, schema.Header); err != nil {
			return err
		}
	}
	if err := addSheet(f, usersSheet, usersHeader); err != nil {
		return err
	}

	accounts, err := store.SeedAccounts()
	if err != nil {
		return err
	}
	for i, account := range accounts {
		if err := setRow(f, usersSheet, i+2, encodeUser(account)); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.SaveAs(s.path)
}

// ensureSheets adds any ledger sheet missing from an existing workbook.
func (s *Store) ensureSheets() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	changed := false
	for _, schema := range ledger.Schemas() {
		added, err := ensureSheet(f, schema.Name, schema.Header)
		if err != nil {
			return err
		}
		changed = changed || added
	}
	added, err := ensureSheet(f, usersSheet, usersHeader)
	if err != nil {
		return err
	}
	if !(changed || added) {
		return nil
	}
	return f.Save()
}

// refresh reloads the workbook when the file changed since the last load.
func (s *Store) refresh() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat workbook: %w", err)
	}
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}
	log.Printf("[sheet-store] workbook changed on disk, reloading %s", s.path)
	return s.load()
}

func (s *Store) load() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	ledgers := make(map[string]*ledger.Arena)
	nextRow := make(map[string]int)
	for _, schema := range ledger.Schemas() {
		arena := ledger.NewArena(schema)
		rows, err := f.GetRows(schema.Name)
		if err != nil {
			return fmt.Errorf("read %s: %w", schema.Name, err)
		}
		for i, cells := range rows {
			row := ledger.Row(cells)
			if i == 0 && schema.IsHeader(row) {
				continue
			}
			if isBlank(row) {
				continue
			}
			arena.Append(row)
		}
		ledgers[schema.Name] = arena
		nextRow[schema.Name] = max(len(rows)+1, 2)
	}

	users := make(map[string]userRow)
	rows, err := f.GetRows(usersSheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", usersSheet, err)
	}
	for i, cells := range rows {
		if i == 0 {
			continue
		}
		account, ok := decodeUser(ledger.Row(cells))
		if !ok {
			continue
		}
		users[account.Username] = userRow{account: account, row: i + 1}
	}

	s.ledgers = ledgers
	s.nextRow = nextRow
	s.users = users
	s.nextUser = max(len(rows)+1, 2)
	return s.stamp()
}

func (s *Store) writeRow(sheet string, rowNum int, row ledger.Row) error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setRow(f, sheet, rowNum, row); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return err
	}
	return s.stamp()
}

func (s *Store) stamp() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	s.modTime = info.ModTime()
	s.size = info.Size()
	return nil
}

func ensureSheet(f *excelize.File, name string, header []string) (bool, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return false, err
	}
	if idx >= 0 {
		return false, nil
	}
	return true, addSheet(f, name, header)
}

func addSheet(f *excelize.File, name string, header []string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	return setRow(f, name, 1, header)
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func isBlank(row ledger.Row) bool {
	for i := range row {
		if row.Cell(i) != "" {
			return false
		}
	}
	return true
}

func encodeUser(u domain.UserAccount) []string {
	return []string{
		u.Username,
		u.Password,
		u.Role,
		strconv.FormatBool(u.Active),
		u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func decodeUser(row ledger.Row) (domain.UserAccount, bool) {
	username := strings.ToLower(row.Cell(0))
	if username == "" {
		return domain.UserAccount{}, false
	}
	active, err := strconv.ParseBool(row.Cell(3))
	if err != nil {
		active = true
	}
	createdAt, _ := time.Parse(time.RFC3339, row.Cell(4))
	return domain.UserAccount{
		Username:  username,
		Password:  row.Cell(1),
		Role:      row.Cell(2),
		Active:    active,
		CreatedAt: createdAt,
	}, true
}
