// ドキュメント集約ゲートウェイのエントリポイント。
// ルートレジストリからサービスカタログを構築し、各サービスのAPIドキュメントを
// ゲートウェイ経由のURLに書き換えて公開する。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/nao1215/docsgw/internal/config"
	"github.com/nao1215/docsgw/internal/gateway"
	"github.com/nao1215/docsgw/pkg/middleware"
	"github.com/nao1215/docsgw/pkg/route"
)

func main() {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		runServe(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "token":
		runToken(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "不明なコマンドです: %q（serve, token）\n", os.Args[1])
		os.Exit(1)
	}
}

// runServe はゲートウェイを起動する。
func runServe(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locator, err := route.Open(cfg.RouteSource, route.OpenOptions{Timeout: cfg.RouteTimeout})
	if err != nil {
		log.Fatalf("ルートレジストリの初期化に失敗: %v", err)
	}
	if c, ok := locator.(io.Closer); ok {
		defer c.Close()
	}

	initCtx, cancel := context.WithTimeout(ctx, cfg.RouteTimeout)
	server, err := gateway.NewServer(initCtx, cfg, locator)
	cancel()
	if err != nil {
		log.Fatalf("Gatewayサーバーの初期化に失敗: %v", err)
	}

	log.Printf("Gatewayサービスを起動します: :%s (routes=%s)", cfg.Port, cfg.RouteSource)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Gatewayサービスの実行に失敗: %v", err)
	}
	log.Printf("Gatewayサービスを停止しました")
}

// runToken は管理API用のJWTトークンを発行して標準出力に書き出す。
func runToken(args []string) {
	fs := flag.NewFlagSet("docsgw token", flag.ExitOnError)
	secret := fs.String("admin-jwt-secret", "", "Secret for admin API tokens")
	subject := fs.String("subject", "ops", "Subject (operator name) of the token")
	ttl := fs.Duration("ttl", time.Hour, "Lifetime of the token")
	if err := ff.Parse(fs, args, ff.WithEnvVarNoPrefix()); err != nil {
		log.Fatalf("フラグの解析に失敗: %v", err)
	}
	if *secret == "" {
		log.Fatal("ADMIN_JWT_SECRET または -admin-jwt-secret を指定してください")
	}

	token, err := middleware.GenerateJWT(*secret, *subject, *ttl)
	if err != nil {
		log.Fatalf("トークンの生成に失敗: %v", err)
	}
	fmt.Println(token)
}
