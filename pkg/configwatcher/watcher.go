package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"english_tutor_backend/internal/config"
	"english_tutor_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

// 编辑器保存时往往连续触发多次写事件
var debounce = time.Second

// WatchConfig 监听配置文件，写入后防抖重新加载，直到 ctx 结束
func WatchConfig(ctx context.Context, configFile string, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configFile)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	// 监听目录而不是文件，编辑器的原子替换也能被捕获
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖处理
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(absPath))
			if err != nil {
				// 新配置无效时保持当前配置
				logger.L(ctx).Error("Config reload rejected", zap.String("file", absPath), zap.Error(err))
				continue
			}
			logger.L(ctx).Info("Config reloaded",
				zap.String("file", absPath),
				zap.Int("planner.min_units", newCfg.Planner.MinUnits),
				zap.String("planner.selection_policy", newCfg.Planner.SelectionPolicy))
			reloader(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.L(ctx).Warn("Config watcher error", zap.Error(err))
		}
	}
}
