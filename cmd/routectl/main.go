// SQLiteルートストアの管理コマンド。
// YAMLのルート定義の取り込み、一覧表示、削除を行う。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v3"

	"github.com/nao1215/docsgw/internal/catalog"
	"github.com/nao1215/docsgw/pkg/route"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	fs := flag.NewFlagSet("routectl "+os.Args[1], flag.ExitOnError)
	dbPath := fs.String("db", "routes.db", "Path of the SQLite route store")
	suffix := fs.String("service-suffix", catalog.DefaultServiceSuffix, "Route ID suffix that marks a service (same as the gateway's SERVICE_SUFFIX)")
	docsPath := fs.String("docs-path", catalog.DefaultDocsPath, "Path of the API document on each service (same as the gateway's DOCS_PATH)")
	if err := ff.Parse(fs, os.Args[2:], ff.WithEnvVarPrefix("ROUTECTL")); err != nil {
		log.Fatalf("フラグの解析に失敗: %v", err)
	}

	ctx := context.Background()
	store, err := route.OpenSQLiteLocator(*dbPath)
	if err != nil {
		log.Fatalf("ルートストアを開けません: %v", err)
	}
	defer store.Close()

	switch os.Args[1] {
	case "import":
		if fs.NArg() != 1 {
			usage()
		}
		err = importRoutes(ctx, store, fs.Arg(0))
	case "list":
		err = listRoutes(ctx, os.Stdout, store, catalog.NewBuilder(*suffix, *docsPath))
	case "delete":
		if fs.NArg() != 1 {
			usage()
		}
		err = store.Delete(ctx, fs.Arg(0))
	default:
		usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: routectl import|list|delete [-db routes.db] [-service-suffix -service] [-docs-path /v3/api-docs] [file.yaml|route-id]")
	os.Exit(2)
}

// importRoutes はYAMLファイルのルート定義をストアに保存する。
func importRoutes(ctx context.Context, store *route.SQLiteLocator, path string) error {
	routes, err := route.NewFileLocator(path).ListRoutes(ctx)
	if err != nil {
		return err
	}
	for _, d := range routes {
		if err := store.Save(ctx, d); err != nil {
			return err
		}
	}
	log.Printf("%d 件のルート定義を取り込みました", len(routes))
	return nil
}

// listRoutes はストアのルート定義と、bでカタログを構築した場合のサービス名をoutに表示する。
func listRoutes(ctx context.Context, out io.Writer, store route.Locator, b catalog.Builder) error {
	routes, err := store.ListRoutes(ctx)
	if err != nil {
		return err
	}
	c, warnings := b.Build(routes)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tURI\tPATH\tSERVICE\tDOCS")
	for _, d := range routes {
		service, docs := "-", "-"
		for _, e := range c.Entries() {
			if e.RouteID == d.ID {
				service, docs = e.Name, e.DocsURL
			}
		}
		pattern, ok := d.PathPattern()
		if !ok {
			pattern = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.URI, pattern, service, docs)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, warn := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warn)
	}
	return nil
}
