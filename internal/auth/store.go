package auth

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/gatekeeper/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// Store は資格情報ストアへのアクセスを表す。
// 一意性はストア自身の制約で保証し、違反はErrDuplicateUsername / ErrDuplicateEmailとして返す。
type Store interface {
	// Create は新しいユーザーを作成する。
	Create(ctx context.Context, u NewUser) (*User, error)
	// FindByUsername はユーザー名でユーザーを検索する。存在しない場合はErrUnknownUserを返す。
	FindByUsername(ctx context.Context, username string) (*User, error)
	// UsernameExists はユーザー名が登録済みかを返す。
	UsernameExists(ctx context.Context, username string) (bool, error)
	// EmailExists はメールアドレスが登録済みかを返す。
	EmailExists(ctx context.Context, email string) (bool, error)
	// Deactivate はユーザーを無効化する。
	Deactivate(ctx context.Context, username string) error
	// Delete はユーザーを削除する。
	Delete(ctx context.Context, username string) error
}

// SQLStore はdatabase/sqlによるStore実装。SQLiteとPostgreSQLに対応する。
type SQLStore struct {
	db      *sql.DB
	dialect migration.Dialect
	now     func() time.Time
}

// OpenStore は接続文字列からストアを開き、マイグレーションを適用する。
// "postgres://" または "postgresql://" で始まる場合はPostgreSQL、
// それ以外（"sqlite://path" やファイルパス）はSQLiteとして扱う。
func OpenStore(ctx context.Context, dsn string, logger *slog.Logger) (*SQLStore, error) {
	driver, source, dialect := parseDSN(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if err := migration.Run(ctx, db, dialect, migrationsFS, "migrations/"+string(dialect), logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore はマイグレーション済みのデータベースからストアを生成する。
func NewSQLStore(db *sql.DB, dialect migration.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// Close はデータベース接続を閉じる。
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// parseDSN は接続文字列からドライバ名、データソース、方言を決定する。
func parseDSN(dsn string) (driver, source string, dialect migration.Dialect) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", dsn, migration.DialectPostgres
	}

	source = strings.TrimPrefix(dsn, "sqlite://")
	if !strings.Contains(source, "?") {
		source += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	return "sqlite", source, migration.DialectSQLite
}

const userColumns = `id, username, email, password_hash, is_admin, is_active, created_at, updated_at, deactivated_at`

// Create は新しいユーザーを作成する。
func (s *SQLStore) Create(ctx context.Context, u NewUser) (*User, error) {
	now := s.now().UTC()
	user := &User{
		ID:           uuid.New().String(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := s.dialect.Rebind(`INSERT INTO users (id, username, email, password_hash, is_admin, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.IsActive, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}
	return user, nil
}

// FindByUsername はユーザー名でユーザーを検索する。
func (s *SQLStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)

	var (
		user          User
		deactivatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &deactivatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	if deactivatedAt.Valid {
		t := deactivatedAt.Time
		user.DeactivatedAt = &t
	}
	return &user, nil
}

// UsernameExists はユーザー名が登録済みかを返す。
func (s *SQLStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = ?`, username)
}

// EmailExists はメールアドレスが登録済みかを返す。
func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE email = ?`, email)
}

func (s *SQLStore) exists(ctx context.Context, query, arg string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("存在確認に失敗: %w", err)
	}
	return true, nil
}

// Deactivate はユーザーを無効化する。
func (s *SQLStore) Deactivate(ctx context.Context, username string) error {
	now := s.now().UTC()
	query := s.dialect.Rebind(`UPDATE users SET is_active = ?, deactivated_at = ?, updated_at = ? WHERE username = ?`)
	return s.execAffectingOne(ctx, query, false, now, now, username)
}

// Delete はユーザーを削除する。
func (s *SQLStore) Delete(ctx context.Context, username string) error {
	query := s.dialect.Rebind(`DELETE FROM users WHERE username = ?`)
	return s.execAffectingOne(ctx, query, username)
}

func (s *SQLStore) execAffectingOne(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ユーザーの更新に失敗: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if affected == 0 {
		return ErrUnknownUser
	}
	return nil
}

// classifyUniqueViolation は一意制約違反をErrDuplicateUsername / ErrDuplicateEmailに変換する。
// 一意制約違反でない場合はnilを返す。
func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return duplicateFor(pgErr.ConstraintName)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return duplicateFor(sqliteErr.Error())
		}
	}
	return nil
}

// duplicateFor は制約名または制約違反のメッセージから重複した項目を判別する。
func duplicateFor(msg string) error {
	if strings.Contains(msg, "email") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

var _ Store = (*SQLStore)(nil)
