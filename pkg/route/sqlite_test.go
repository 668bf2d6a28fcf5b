package route

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newTestSQLiteLocator はインメモリSQLiteを使用したLocatorを生成する。
func newTestSQLiteLocator(t *testing.T) *SQLiteLocator {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	l, err := NewSQLiteLocator(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteLocator()でエラーが発生: %v", err)
	}
	return l
}

// TestSQLiteLocator はSQLiteへの保存と読み取りを検証する。
func TestSQLiteLocator(t *testing.T) {
	t.Parallel()

	t.Run("保存したルート定義を順序通りに読み取れること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := newTestSQLiteLocator(t)
		for _, d := range wantYAMLRoutes {
			if err := l.Save(ctx, d); err != nil {
				t.Fatalf("Save()でエラーが発生: %v", err)
			}
		}

		got, err := l.ListRoutes(ctx)
		if err != nil {
			t.Fatalf("ListRoutes()でエラーが発生: %v", err)
		}
		// order, id の順
		want := []Definition{wantYAMLRoutes[2], wantYAMLRoutes[0], wantYAMLRoutes[1]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListRoutes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("同じIDで保存すると置き換えられること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := newTestSQLiteLocator(t)
		if err := l.Save(ctx, wantYAMLRoutes[0]); err != nil {
			t.Fatalf("Save()でエラーが発生: %v", err)
		}
		updated := Definition{
			ID:         "orders-service",
			URI:        "http://orders-v2:8080",
			Predicates: []Predicate{{Name: "Path", Args: map[string]string{"_genkey_0": "/v2/orders/**"}}},
		}
		if err := l.Save(ctx, updated); err != nil {
			t.Fatalf("Save()でエラーが発生: %v", err)
		}

		got, err := l.ListRoutes(ctx)
		if err != nil {
			t.Fatalf("ListRoutes()でエラーが発生: %v", err)
		}
		if diff := cmp.Diff([]Definition{updated}, got); diff != "" {
			t.Errorf("ListRoutes() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("プレディケートなしのルートも保存できること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := newTestSQLiteLocator(t)
		if err := l.Save(ctx, Definition{ID: "bare-service", URI: "http://bare"}); err != nil {
			t.Fatalf("Save()でエラーが発生: %v", err)
		}
		got, err := l.ListRoutes(ctx)
		if err != nil {
			t.Fatalf("ListRoutes()でエラーが発生: %v", err)
		}
		if len(got) != 1 || len(got[0].Predicates) != 0 {
			t.Errorf("ListRoutes() = %+v", got)
		}
	})

	t.Run("削除したルート定義は読み取れないこと", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		l := newTestSQLiteLocator(t)
		for _, d := range wantYAMLRoutes {
			if err := l.Save(ctx, d); err != nil {
				t.Fatalf("Save()でエラーが発生: %v", err)
			}
		}
		if err := l.Delete(ctx, "users-service"); err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}

		got, err := l.ListRoutes(ctx)
		if err != nil {
			t.Fatalf("ListRoutes()でエラーが発生: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("件数 = %d, want 2", len(got))
		}
		for _, d := range got {
			if d.ID == "users-service" {
				t.Error("削除したルート定義が残っている")
			}
		}
	})

	t.Run("接続が閉じている場合はErrRegistryUnavailableが返ること", func(t *testing.T) {
		t.Parallel()

		l := newTestSQLiteLocator(t)
		l.Close()
		_, err := l.ListRoutes(context.Background())
		if !errors.Is(err, ErrRegistryUnavailable) {
			t.Errorf("ErrRegistryUnavailableが返るべき: %v", err)
		}
	})
}
