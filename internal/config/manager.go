package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ChangeHandler is called with the newly applied configuration after a
// successful reload.
type ChangeHandler func(cfg *SplitConfig)

// Manager watches a split configuration file and hot-reloads it on
// change. Invalid updates are rejected and logged; the previous
// configuration stays in effect.
type Manager struct {
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}

	mu       sync.RWMutex
	current  *SplitConfig
	handlers []ChangeHandler
	started  bool
}

// NewManager creates a manager for the given config file. The file must
// load successfully once before the manager is usable.
func NewManager(path string, logger *zap.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	return &Manager{
		path:    path,
		logger:  logger,
		watcher: watcher,
		stopCh:  make(chan struct{}),
		current: cfg,
	}, nil
}

// Current returns a copy of the active configuration.
func (m *Manager) Current() *SplitConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// OnChange registers a handler invoked after each successful reload.
func (m *Manager) OnChange(h ChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Start begins watching the config file's directory for changes.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	// Watch the directory, not the file: editors replace files via
	// rename, which drops per-file watches.
	if err := m.watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	go m.watchLoop()

	m.logger.Info("Split config manager started", zap.String("path", m.path))
	return nil
}

// Stop stops watching for changes.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	close(m.stopCh)
	return m.watcher.Close()
}

// Reload re-reads the config file immediately.
func (m *Manager) Reload() error {
	return m.apply("manual_reload")
}

func (m *Manager) watchLoop() {
	for {
		select {
		case <-m.stopCh:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(m.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Small delay to absorb rapid successive writes.
			time.Sleep(50 * time.Millisecond)
			if err := m.apply(event.Op.String()); err != nil {
				m.logger.Error("Failed to reload split config",
					zap.String("path", m.path),
					zap.Error(err),
				)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (m *Manager) apply(action string) error {
	cfg, err := loadFile(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	handlers := make([]ChangeHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		h(cfg.Clone())
	}

	m.logger.Info("Split config reloaded",
		zap.String("path", m.path),
		zap.String("action", action),
		zap.String("config_hash", cfg.Hash()),
	)
	return nil
}

// loadFile parses a YAML or JSON config file on top of defaults and
// validates the result.
func loadFile(path string) (*SplitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse JSON config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format for %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
