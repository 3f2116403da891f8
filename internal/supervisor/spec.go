package supervisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/gatekeeper/internal/config"
	"gopkg.in/yaml.v3"
)

// ServiceSpec は起動する1サービスの定義。
type ServiceSpec struct {
	// Name はサービス名。ログとハンドルの識別に使う。
	Name string `yaml:"name"`
	// Command は実行ファイルのパス。
	Command string `yaml:"command"`
	// Args はコマンドライン引数。
	Args []string `yaml:"args,omitempty"`
	// Env は親プロセスの環境変数に追加する "KEY=VALUE" 形式の環境変数。
	Env []string `yaml:"env,omitempty"`
	// HealthURL はヘルスチェックでGETするURL。
	HealthURL string `yaml:"health_url"`
}

// Validate は定義に必須項目が揃っているかを検証する。
func (s ServiceSpec) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("nameは必須です")
	case s.Command == "":
		return fmt.Errorf("%s: commandは必須です", s.Name)
	case s.HealthURL == "":
		return fmt.Errorf("%s: health_urlは必須です", s.Name)
	}
	return nil
}

// fleetFile はフリート定義ファイルの構造。
type fleetFile struct {
	Services []ServiceSpec `yaml:"services"`
}

// LoadSpecs はYAMLのフリート定義ファイルを読み込む。
func LoadSpecs(path string) ([]ServiceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("フリート定義の読み込みに失敗: %w", err)
	}

	var file fleetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("フリート定義の解析に失敗: path=%s: %w", path, err)
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("フリート定義にサービスがありません: path=%s", path)
	}

	seen := make(map[string]struct{}, len(file.Services))
	for _, spec := range file.Services {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("フリート定義が不正: %w", err)
		}
		if _, ok := seen[spec.Name]; ok {
			return nil, fmt.Errorf("サービス名が重複しています: %s", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return file.Services, nil
}

// DefaultSpecs はbinDirにあるgateway, auth, messageの3バイナリからフリート定義を組み立てる。
// 各サービスは親プロセスの環境変数を引き継ぐため、設定は共通の.envと環境変数で与える。
func DefaultSpecs(cfg *config.Config, binDir string) []ServiceSpec {
	return []ServiceSpec{
		{Name: "gateway", Command: filepath.Join(binDir, "gateway"), HealthURL: cfg.GatewayURL + "/"},
		{Name: "auth", Command: filepath.Join(binDir, "auth"), HealthURL: cfg.AuthURL + "/"},
		{Name: "message", Command: filepath.Join(binDir, "message"), HealthURL: cfg.MessageURL + "/"},
	}
}
