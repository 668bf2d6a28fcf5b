package route

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileLocator はYAMLファイルからルート定義を読み込むLocator。
// ListRoutesのたびにファイルを読み直すため、ファイルの更新はリフレッシュで反映される。
type FileLocator struct {
	// path はYAMLファイルのパス。
	path string
}

// routesFile はルート定義ファイルのトップレベル構造。
type routesFile struct {
	Routes []Definition `yaml:"routes"`
}

// NewFileLocator は新しいFileLocatorを生成する。
func NewFileLocator(path string) *FileLocator {
	return &FileLocator{path: path}
}

// ListRoutes はYAMLファイルを読み込んでルート定義を返す。
func (l *FileLocator) ListRoutes(ctx context.Context) ([]Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: ルート定義ファイルの読み込みに失敗: %w", ErrRegistryUnavailable, err)
	}
	return parseRoutesYAML(data)
}

// parseRoutesYAML はYAML形式のルート定義をパースする。
func parseRoutesYAML(data []byte) ([]Definition, error) {
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: ルート定義ファイルのパースに失敗: %w", ErrRegistryUnavailable, err)
	}
	return f.Routes, nil
}

// UnmarshalYAML はショートカット記法（"Path=/orders/**"）と
// 完全な記法（name/args）の両方を受け付ける。
func (p *Predicate) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParsePredicate(value.Value)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	type plain Predicate
	var full plain
	if err := value.Decode(&full); err != nil {
		return fmt.Errorf("プレディケートのデコードに失敗: %w", err)
	}
	*p = Predicate(full)
	return nil
}
