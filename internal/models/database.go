package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup by id matches nothing
var ErrNotFound = errors.New("record not found")

// ErrMissingKey is returned when an update lacks its dedup key
var ErrMissingKey = errors.New("platform and content id are required")

const (
	DefaultPerPage = 20
	MaxPerPage     = 100

	DefaultSearchLimit = 50

	busyRetries = 5
)

// Database wraps the gorm connection to the SQLite store
type Database struct {
	conn *gorm.DB
	now  func() time.Time
}

// NewDatabase opens (or creates) the SQLite database at path and migrates the schema
func NewDatabase(path string) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite allows a single writer; one pooled connection serializes the loops
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&MovieUpdate{}, &SocialAccount{}, &MonitoringEvent{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{
		conn: conn,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetClock overrides the time source used for insert timestamps and stats
func (db *Database) SetClock(now func() time.Time) {
	db.now = func() time.Time { return now().UTC() }
}

// withRetry retries op while SQLite reports the database as busy
func (db *Database) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, busyRetries), ctx))
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// Update operations

// SaveUpdate inserts u unless a record with the same platform and content id
// exists. A duplicate reports inserted=false with a nil error and leaves the
// stored record untouched. u.ID is only set when the row was inserted.
func (db *Database) SaveUpdate(ctx context.Context, u *MovieUpdate) (bool, error) {
	if u.Platform == "" || u.ContentID == "" {
		return false, ErrMissingKey
	}
	if !u.Language.Valid() {
		u.Language = LanguageUnknown
	}
	if !u.UpdateType.Valid() {
		u.UpdateType = UpdateTypeNews
	}
	u.ID = 0
	u.CreatedAt = db.now()

	var inserted bool
	err := db.withRetry(ctx, func() error {
		result := db.conn.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(u)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		u.ID = 0
		return false, fmt.Errorf("failed to save update %s/%s: %w", u.Platform, u.ContentID, err)
	}
	if !inserted {
		u.ID = 0
	}
	return inserted, nil
}

// MarkRelayed flags an update as sent to the relay channel
func (db *Database) MarkRelayed(ctx context.Context, id uint) error {
	return db.withRetry(ctx, func() error {
		return db.conn.WithContext(ctx).
			Model(&MovieUpdate{}).
			Where("id = ?", id).
			Update("relayed", true).Error
	})
}

// GetUpdate retrieves an update by ID
func (db *Database) GetUpdate(ctx context.Context, id uint) (*MovieUpdate, error) {
	var u MovieUpdate
	err := db.conn.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateFilter selects updates for listing. Empty fields match everything.
type UpdateFilter struct {
	Platform   Platform
	Language   Language
	UpdateType UpdateType
	Page       int
	PerPage    int
}

func (f UpdateFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.Platform != "" {
		tx = tx.Where("platform = ?", f.Platform)
	}
	if f.Language != "" {
		tx = tx.Where("language = ?", f.Language)
	}
	if f.UpdateType != "" {
		tx = tx.Where("update_type = ?", f.UpdateType)
	}
	return tx
}

// UpdatePage is one page of a filtered listing
type UpdatePage struct {
	Updates []MovieUpdate `json:"updates"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Pages   int           `json:"pages"`
}

// ListUpdates returns updates matching every set filter, newest first
func (db *Database) ListUpdates(ctx context.Context, f UpdateFilter) (*UpdatePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}

	var total int64
	if err := db.conn.WithContext(ctx).Model(&MovieUpdate{}).Scopes(f.apply).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count updates: %w", err)
	}

	updates := []MovieUpdate{}
	err := db.conn.WithContext(ctx).
		Scopes(f.apply).
		Order("created_at DESC, id DESC").
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list updates: %w", err)
	}

	return &UpdatePage{
		Updates: updates,
		Total:   total,
		Page:    f.Page,
		PerPage: f.PerPage,
		Pages:   int((total + int64(f.PerPage) - 1) / int64(f.PerPage)),
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchUpdates returns updates whose title, body, movie or actor contains query
func (db *Database) SearchUpdates(ctx context.Context, query string, limit int) ([]MovieUpdate, error) {
	updates := []MovieUpdate{}
	query = strings.TrimSpace(query)
	if query == "" {
		return updates, nil
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	pattern := "%" + likeEscaper.Replace(query) + "%"
	err := db.conn.WithContext(ctx).
		Where(`title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\' OR movie_name LIKE ? ESCAPE '\' OR actor_name LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search updates: %w", err)
	}
	return updates, nil
}

// MovieNames returns every distinct non-empty movie name on record
func (db *Database) MovieNames(ctx context.Context) ([]string, error) {
	var names []string
	err := db.conn.WithContext(ctx).
		Model(&MovieUpdate{}).
		Where("movie_name <> ''").
		Distinct().
		Pluck("movie_name", &names).Error
	return names, err
}

// Stats aggregates update and account counts
type Stats struct {
	TotalUpdates   int64            `json:"total_updates"`
	TodayUpdates   int64            `json:"today_updates"`
	WeekUpdates    int64            `json:"week_updates"`
	ByPlatform     map[string]int64 `json:"platform_stats"`
	ByLanguage     map[string]int64 `json:"language_stats"`
	ByUpdateType   map[string]int64 `json:"type_stats"`
	ActiveAccounts int64            `json:"active_accounts"`
}

type groupCount struct {
	Label string
	Total int64
}

// Stats computes totals relative to the current UTC day
func (db *Database) Stats(ctx context.Context) (*Stats, error) {
	now := db.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := today.AddDate(0, 0, -7)

	stats := &Stats{
		ByPlatform:   make(map[string]int64),
		ByLanguage:   make(map[string]int64),
		ByUpdateType: make(map[string]int64),
	}

	tx := db.conn.WithContext(ctx)
	if err := tx.Model(&MovieUpdate{}).Count(&stats.TotalUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to count updates: %w", err)
	}
	if err := tx.Model(&MovieUpdate{}).Where("created_at >= ?", today).Count(&stats.TodayUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's updates: %w", err)
	}
	if err := tx.Model(&MovieUpdate{}).Where("created_at >= ?", weekAgo).Count(&stats.WeekUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to count this week's updates: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"platform", stats.ByPlatform},
		{"language", stats.ByLanguage},
		{"update_type", stats.ByUpdateType},
	}
	for _, g := range groups {
		var rows []groupCount
		err := tx.Model(&MovieUpdate{}).
			Select(g.column + " AS label, COUNT(*) AS total").
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to group updates by %s: %w", g.column, err)
		}
		for _, row := range rows {
			if row.Label == "" || row.Label == string(LanguageUnknown) {
				continue
			}
			g.into[row.Label] = row.Total
		}
	}

	if err := tx.Model(&SocialAccount{}).Where("active = ?", true).Count(&stats.ActiveAccounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count active accounts: %w", err)
	}

	return stats, nil
}

// Account operations

// SeedAccounts inserts accounts, skipping any (platform, username) already present.
// It returns how many were inserted.
func (db *Database) SeedAccounts(ctx context.Context, accounts []SocialAccount) (int, error) {
	inserted := 0
	for i := range accounts {
		a := accounts[i]
		a.CreatedAt = db.now()
		result := db.conn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&a)
		if result.Error != nil {
			return inserted, fmt.Errorf("failed to seed account %s/%s: %w", a.Platform, a.Username, result.Error)
		}
		if result.RowsAffected > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// UpsertAccount creates an account or replaces the mutable fields of the
// existing (platform, username) row
func (db *Database) UpsertAccount(ctx context.Context, a *SocialAccount) (*SocialAccount, error) {
	a.ID = 0
	a.CreatedAt = db.now()
	err := db.withRetry(ctx, func() error {
		return db.conn.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "account_type", "language", "active"}),
		}).Create(a).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	var stored SocialAccount
	err = db.conn.WithContext(ctx).
		Where("platform = ? AND username = ?", a.Platform, a.Username).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}
	return &stored, nil
}

// GetAccount retrieves an account by ID
func (db *Database) GetAccount(ctx context.Context, id uint) (*SocialAccount, error) {
	var a SocialAccount
	err := db.conn.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActiveAccounts returns the active accounts of one platform in polling order
func (db *Database) GetActiveAccounts(ctx context.Context, platform Platform) ([]SocialAccount, error) {
	var accounts []SocialAccount
	err := db.conn.WithContext(ctx).
		Where("platform = ? AND active = ?", platform, true).
		Order("account_type, name, id").
		Find(&accounts).Error
	return accounts, err
}

// ListAccounts returns every account, active or not
func (db *Database) ListAccounts(ctx context.Context) ([]SocialAccount, error) {
	accounts := []SocialAccount{}
	err := db.conn.WithContext(ctx).
		Order("platform, account_type, name, id").
		Find(&accounts).Error
	return accounts, err
}

// ToggleAccount flips the active flag and returns the updated account
func (db *Database) ToggleAccount(ctx context.Context, id uint) (*SocialAccount, error) {
	var rows int64
	err := db.withRetry(ctx, func() error {
		result := db.conn.WithContext(ctx).
			Model(&SocialAccount{}).
			Where("id = ?", id).
			Update("active", gorm.Expr("NOT active"))
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle account %d: %w", id, err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return db.GetAccount(ctx, id)
}

// DeleteAccount removes an account. Stored updates are kept.
func (db *Database) DeleteAccount(ctx context.Context, id uint) error {
	var rows int64
	err := db.withRetry(ctx, func() error {
		result := db.conn.WithContext(ctx).Delete(&SocialAccount{}, id)
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAccount records when an account was last polled
func (db *Database) TouchAccount(ctx context.Context, id uint, at time.Time) error {
	at = at.UTC()
	return db.withRetry(ctx, func() error {
		return db.conn.WithContext(ctx).
			Model(&SocialAccount{}).
			Where("id = ?", id).
			Update("last_checked_at", &at).Error
	})
}

// Event operations

// LogEvent appends a monitoring event
func (db *Database) LogEvent(ctx context.Context, e *MonitoringEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = db.now()
	}
	return db.withRetry(ctx, func() error {
		return db.conn.WithContext(ctx).Create(e).Error
	})
}

// RecentEvents returns the latest events, optionally for one platform
func (db *Database) RecentEvents(ctx context.Context, platform Platform, limit int) ([]MonitoringEvent, error) {
	events := []MonitoringEvent{}
	if limit <= 0 {
		limit = DefaultPerPage
	}
	tx := db.conn.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit)
	if platform != "" {
		tx = tx.Where("platform = ?", platform)
	}
	err := tx.Find(&events).Error
	return events, err
}
