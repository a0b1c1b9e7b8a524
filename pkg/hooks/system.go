// Package hooks wires every hook subsystem package into a single System
// facade: registry, security validation, condition evaluation, audit
// logging, approval workflow, RBAC, event handling, and dispatch.
// Grounded on original_source/src/hooks/mod.rs's HooksSystem.
package hooks

import (
	"context"
	"path"
	"path/filepath"
	"sync"

	"github.com/hookguard/hookguard/pkg/hooks/hookapproval"
	"github.com/hookguard/hookguard/pkg/hooks/hookaudit"
	"github.com/hookguard/hookguard/pkg/hooks/hookconditions"
	"github.com/hookguard/hookguard/pkg/hooks/hookconfig"
	"github.com/hookguard/hookguard/pkg/hooks/hookcost"
	"github.com/hookguard/hookguard/pkg/hooks/hookdispatcher"
	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookevents"
	"github.com/hookguard/hookguard/pkg/hooks/hookexecutor"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
	"github.com/hookguard/hookguard/pkg/hooks/hookpipeline"
	"github.com/hookguard/hookguard/pkg/hooks/hookquality"
	"github.com/hookguard/hookguard/pkg/hooks/hookrbac"
	"github.com/hookguard/hookguard/pkg/hooks/hookregistry"
	"github.com/hookguard/hookguard/pkg/hooks/hooksecurity"
	"github.com/hookguard/hookguard/pkg/logger"
)

// System is the main entry point: it owns every hook subsystem and
// exposes the operations a CLI or host application drives.
type System struct {
	Registry   *hookregistry.Registry
	Validator  *hooksecurity.Validator
	Evaluator  *hookconditions.Evaluator
	Audit      *hookaudit.Logger
	Approvals  *hookapproval.Workflow
	RBAC       *hookrbac.Manager
	Executor   *hookexecutor.Executor
	Events     *hookevents.Handler
	Dispatcher *hookdispatcher.Dispatcher
	Cost       *hookcost.Controller
	Quality    *hookquality.Manager
	Pipeline   *hookpipeline.Pipeline

	log logger.Logger

	watcher      *hookconfig.Watcher
	watchedMu    sync.Mutex
	watchedByPath map[string]hookmodel.HookID
}

// Option configures a System at construction time.
type Option func(*System)

// WithLogger overrides the structured logger passed to every subsystem
// that accepts one.
func WithLogger(log logger.Logger) Option {
	return func(s *System) { s.log = log }
}

// New constructs a fully wired System. configDir is where the audit log
// file lives (hooks_audit.log under configDir).
func New(configDir string, opts ...Option) (*System, error) {
	s := &System{log: logger.NewDefaultLogger()}
	for _, opt := range opts {
		opt(s)
	}

	validator, err := hooksecurity.NewValidator()
	if err != nil {
		return nil, hookerrors.New("hooks.new", hookerrors.KindConfig, err)
	}

	audit, err := hookaudit.New(filepath.Join(configDir, "hooks_audit.log"), hookaudit.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	rbac := hookrbac.New()
	rbac.SeedDefaultRoles()

	approvals := hookapproval.New(hookapproval.WithAuditLogger(audit), hookapproval.WithLogger(s.log))
	registry := hookregistry.New()
	evaluator := hookconditions.NewEvaluator()
	executor := hookexecutor.New(validator, evaluator, approvals, hookexecutor.WithAuditLogger(audit), hookexecutor.WithLogger(s.log))
	events := hookevents.New(registry, executor, hookevents.WithLogger(s.log))
	dispatcher := hookdispatcher.New(hookdispatcher.DefaultConfig(), events, hookdispatcher.WithLogger(s.log))
	cost := hookcost.New(hookcost.DefaultConfig())
	quality := hookquality.New()
	pipeline := hookpipeline.New(hookpipeline.DefaultConfig(), dispatcher, cost, quality, audit, hookpipeline.WithLogger(s.log))

	s.Registry = registry
	s.Validator = validator
	s.Evaluator = evaluator
	s.Audit = audit
	s.Approvals = approvals
	s.RBAC = rbac
	s.Executor = executor
	s.Events = events
	s.Dispatcher = dispatcher
	s.Cost = cost
	s.Quality = quality
	s.Pipeline = pipeline

	return s, nil
}

// Close releases the audit log file handle and stops the approval
// workflow's background monitors and any active config-directory watch.
func (s *System) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.Approvals.Close()
	return s.Audit.Close()
}

// WatchHooks starts hot-reloading hook configuration files under hooksDir:
// a create or write re-parses the file and swaps the previously-registered
// hook sourced from that path for the new one; a remove unregisters it.
// Calling WatchHooks again replaces any prior watch.
func (s *System) WatchHooks(hooksDir string) error {
	if s.watcher != nil {
		s.watcher.Stop()
	}

	loader := hookconfig.NewLoader(s.Validator)
	watcher, err := hookconfig.NewWatcher(loader, s.log)
	if err != nil {
		return err
	}

	s.watchedMu.Lock()
	if s.watchedByPath == nil {
		s.watchedByPath = make(map[string]hookmodel.HookID)
	}
	s.watchedMu.Unlock()

	watcher.OnChange(func(hook *hookmodel.Hook, removedPath string) {
		s.watchedMu.Lock()
		defer s.watchedMu.Unlock()

		if hook == nil {
			if id, ok := s.watchedByPath[removedPath]; ok {
				s.Registry.Unregister(id)
				delete(s.watchedByPath, removedPath)
			}
			return
		}

		if id, ok := s.watchedByPath[hook.Metadata.Source]; ok {
			s.Registry.Unregister(id)
		}
		if err := s.Registry.Register(hook); err != nil {
			s.log.Warn("failed to register reloaded hook", map[string]interface{}{"path": hook.Metadata.Source, "error": err.Error()})
			return
		}
		s.watchedByPath[hook.Metadata.Source] = hook.ID
	})

	if err := watcher.Watch(hooksDir); err != nil {
		return err
	}
	s.watcher = watcher
	return nil
}

// StopWatching halts any active hook config hot-reload started by
// WatchHooks. It is a no-op if no watch is active.
func (s *System) StopWatching() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Stop()
	s.watcher = nil
	return err
}

// LoadHooks loads every hook configuration file in hooksDir and
// registers each one.
func (s *System) LoadHooks(hooksDir string) error {
	loader := hookconfig.NewLoader(s.Validator)
	hooks, err := loader.LoadFromDirectory(hooksDir)
	if err != nil {
		return err
	}
	s.watchedMu.Lock()
	if s.watchedByPath == nil {
		s.watchedByPath = make(map[string]hookmodel.HookID)
	}
	s.watchedMu.Unlock()

	for _, hook := range hooks {
		if err := s.Registry.Register(hook); err != nil {
			return err
		}
		s.watchedMu.Lock()
		s.watchedByPath[hook.Metadata.Source] = hook.ID
		s.watchedMu.Unlock()
	}
	return nil
}

// RegisterHook loads a single hook configuration file and registers it.
func (s *System) RegisterHook(configPath string) (hookmodel.HookID, error) {
	loader := hookconfig.NewLoader(s.Validator)
	hook, err := loader.LoadFromFile(configPath)
	if err != nil {
		return "", err
	}
	if err := s.Registry.Register(hook); err != nil {
		return "", err
	}
	if err := s.Audit.LogHookRegistered(string(hook.ID), hook.Name); err != nil {
		s.log.Warn("failed to audit hook registration", map[string]interface{}{"hook_id": string(hook.ID), "error": err.Error()})
	}
	return hook.ID, nil
}

// ListHooks returns every registered hook.
func (s *System) ListHooks() []*hookmodel.Hook {
	return s.Registry.ListAll()
}

// RemoveHook unregisters a hook and records the removal.
func (s *System) RemoveHook(id hookmodel.HookID) error {
	if err := s.Registry.Unregister(id); err != nil {
		return err
	}
	return s.Audit.LogHookRemoved(string(id))
}

// EnableHook enables a registered hook.
func (s *System) EnableHook(id hookmodel.HookID) error {
	if err := s.Registry.SetEnabled(id, true); err != nil {
		return err
	}
	return s.Audit.LogHookEnabled(string(id))
}

// DisableHook disables a registered hook.
func (s *System) DisableHook(id hookmodel.HookID) error {
	if err := s.Registry.SetEnabled(id, false); err != nil {
		return err
	}
	return s.Audit.LogHookDisabled(string(id))
}

// TestHook evaluates a hook configuration's conditions against event
// without executing any of its actions.
func (s *System) TestHook(configPath string, event *hookmodel.HookEvent) (bool, error) {
	loader := hookconfig.NewLoader(s.Validator)
	hook, err := loader.LoadFromFile(configPath)
	if err != nil {
		return false, err
	}

	execCtx := hookmodel.FromEvent(event, "test-"+string(hook.ID))
	return s.Evaluator.Evaluate(hook.Conditions, execCtx)
}

// DispatchEvent routes event through the priority dispatcher.
func (s *System) DispatchEvent(event *hookmodel.HookEvent) error {
	return s.Dispatcher.Dispatch(event)
}

// Start spins up the dispatcher's worker pool. The event handler's
// secondary queue is not drained in the background; it is drained only by
// explicit Events.ProcessQueue calls.
func (s *System) Start(ctx context.Context) {
	s.Dispatcher.Start(ctx)
}

// Stop tears down the dispatcher's worker pool.
func (s *System) Stop() {
	s.Dispatcher.Stop()
}

// GetDispatcherStats returns the dispatcher's current counters.
func (s *System) GetDispatcherStats() hookdispatcher.Stats {
	return s.Dispatcher.GetStats()
}

// GetAuditLogs returns up to limit of the most recent audit records.
func (s *System) GetAuditLogs(limit int) ([]*hookaudit.Event, error) {
	return s.Audit.GetRecentLogs(limit)
}

// ClearAllHooks removes every registered hook. confirm must be true.
func (s *System) ClearAllHooks(confirm bool) error {
	if !confirm {
		return hookerrors.Newf("clear_all_hooks", hookerrors.KindValidation, "confirmation required to clear all hooks")
	}
	count := len(s.Registry.ListAll())
	s.Registry.ClearAll()
	return s.Audit.LogAllHooksCleared(count)
}

// CheckUserPermission reports whether userID holds permission, optionally
// scoped to a specific hook.
func (s *System) CheckUserPermission(userID string, permission hookrbac.Permission, hookID hookmodel.HookID) (bool, error) {
	return s.RBAC.CheckPermission(userID, permission, string(hookID))
}

// GetTeamHooks returns the hooks team has access to: an explicit deny
// excludes a hook even if it is also allowed or matches a pattern, an
// explicit allow includes it, and otherwise a glob pattern match against
// the hook name includes it.
func (s *System) GetTeamHooks(teamName string) ([]*hookmodel.Hook, error) {
	team, ok := s.RBAC.GetTeam(teamName)
	if !ok {
		return nil, hookerrors.Newf("get_team_hooks", hookerrors.KindValidation, "team not found: %s", teamName)
	}

	var accessible []*hookmodel.Hook
	for _, hook := range s.Registry.ListAll() {
		if _, ok := team.HookAccess.DeniedHooks[string(hook.ID)]; ok {
			continue
		}
		if _, ok := team.HookAccess.AllowedHooks[string(hook.ID)]; ok {
			accessible = append(accessible, hook)
			continue
		}
		for _, pattern := range team.HookAccess.HookPatterns {
			if matchesHookPattern(hook.Name, pattern) {
				accessible = append(accessible, hook)
				break
			}
		}
	}
	return accessible, nil
}

// matchesHookPattern is a simple glob match over a hook's name: "*"
// matches anything, "?" matches one character. This is a narrower,
// private concern than hookconditions' cached glob-to-regex compiler
// (used on the hot condition-evaluation path); path.Match's ShellPattern
// semantics are already exactly "*"/"?"/character-class globbing, so
// there's nothing a third-party matcher would add here.
func matchesHookPattern(hookName, pattern string) bool {
	if pattern == "*" {
		return true
	}
	matched, err := path.Match(pattern, hookName)
	if err != nil {
		return hookName == pattern
	}
	return matched
}
