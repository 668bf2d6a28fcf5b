package route

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/nao1215/docsgw/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteLocator はSQLiteデータベースに格納されたルート定義を読み取るLocator。
type SQLiteLocator struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLiteLocator はpathのSQLiteデータベースを開き、スキーマを適用したLocatorを返す。
func OpenSQLiteLocator(path string) (*SQLiteLocator, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	l, err := NewSQLiteLocator(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// NewSQLiteLocator は既存のデータベース接続からLocatorを生成する。
// 未適用のマイグレーションがあれば適用する。
func NewSQLiteLocator(ctx context.Context, db *sql.DB) (*SQLiteLocator, error) {
	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteLocator{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (l *SQLiteLocator) Close() error {
	return l.db.Close()
}

// ListRoutes は格納されているルート定義を order, id の順で返す。
func (l *SQLiteLocator) ListRoutes(ctx context.Context) ([]Definition, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id, uri, route_order FROM routes ORDER BY route_order, id")
	if err != nil {
		return nil, fmt.Errorf("%w: ルート定義の取得に失敗: %w", ErrRegistryUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var routes []Definition
	index := make(map[string]int)
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.ID, &d.URI, &d.Order); err != nil {
			return nil, fmt.Errorf("%w: ルート定義の読み取りに失敗: %w", ErrRegistryUnavailable, err)
		}
		index[d.ID] = len(routes)
		routes = append(routes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	if err := l.attachPredicates(ctx, routes, index); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	return routes, nil
}

// attachPredicates はプレディケートを読み込んで対応するルート定義に追加する。
func (l *SQLiteLocator) attachPredicates(ctx context.Context, routes []Definition, index map[string]int) error {
	rows, err := l.db.QueryContext(ctx, "SELECT route_id, name, args FROM route_predicates ORDER BY route_id, position")
	if err != nil {
		return fmt.Errorf("プレディケートの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var routeID, name, rawArgs string
		if err := rows.Scan(&routeID, &name, &rawArgs); err != nil {
			return fmt.Errorf("プレディケートの読み取りに失敗: %w", err)
		}
		i, ok := index[routeID]
		if !ok {
			continue
		}
		p := Predicate{Name: name, Args: map[string]string{}}
		if err := sonic.UnmarshalString(rawArgs, &p.Args); err != nil {
			return fmt.Errorf("プレディケート引数のデシリアライズに失敗: route=%s: %w", routeID, err)
		}
		routes[i].Predicates = append(routes[i].Predicates, p)
	}
	return rows.Err()
}

// Save はルート定義を登録または置き換える。
func (l *SQLiteLocator) Save(ctx context.Context, d Definition) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO routes (id, uri, route_order) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET uri = excluded.uri, route_order = excluded.route_order, updated_at = datetime('now')
	`, d.ID, d.URI, d.Order); err != nil {
		return fmt.Errorf("ルート定義の保存に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM route_predicates WHERE route_id = ?", d.ID); err != nil {
		return fmt.Errorf("プレディケートの削除に失敗: %w", err)
	}
	for pos, p := range d.Predicates {
		args := p.Args
		if args == nil {
			args = map[string]string{}
		}
		rawArgs, err := sonic.MarshalString(args)
		if err != nil {
			return fmt.Errorf("プレディケート引数のシリアライズに失敗: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO route_predicates (route_id, position, name, args) VALUES (?, ?, ?, ?)",
			d.ID, pos, p.Name, rawArgs); err != nil {
			return fmt.Errorf("プレディケートの保存に失敗: %w", err)
		}
	}
	return tx.Commit()
}

// Delete はルート定義を削除する。存在しない場合は何もしない。
func (l *SQLiteLocator) Delete(ctx context.Context, id string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM route_predicates WHERE route_id = ?", id); err != nil {
		return fmt.Errorf("プレディケートの削除に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM routes WHERE id = ?", id); err != nil {
		return fmt.Errorf("ルート定義の削除に失敗: %w", err)
	}
	return tx.Commit()
}
