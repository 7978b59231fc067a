// Package devicemanager implements the per-cgroup device access policy
// actor: it validates configure/reconfigure calls, updates in-memory state
// via the diff algebra, and commits the result to a DeviceController.
package devicemanager

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mec-project/devicemanager/internal/cgroupdriver"
	"github.com/mec-project/devicemanager/internal/deviceaccess"
	"github.com/mec-project/devicemanager/internal/devicecontroller"
	"github.com/mec-project/devicemanager/internal/diffalgebra"
	"github.com/mec-project/devicemanager/internal/metrics"
	"github.com/mec-project/devicemanager/internal/policyvalidate"
)

// Manager is a single-threaded cooperative actor owning device-access
// state for every cgroup it has been asked to configure. All public
// methods dispatch a command onto an internal queue and block for the
// reply, giving FIFO-per-actor ordering without shared locks.
type Manager struct {
	controller devicecontroller.Controller
	driver     cgroupdriver.Driver
	logger     *logrus.Logger
	metrics    *metrics.Manager

	cmds chan command
	done chan struct{}
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the default logrus.StandardLogger().
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics overrides the default no-op-registration metric set.
func WithMetrics(mm *metrics.Manager) Option {
	return func(m *Manager) { m.metrics = mm }
}

// NewManager starts the actor goroutine and returns a handle to it.
// Callers must call Close when done to stop the goroutine.
func NewManager(controller devicecontroller.Controller, driver cgroupdriver.Driver, opts ...Option) *Manager {
	m := &Manager{
		controller: controller,
		driver:     driver,
		logger:     logrus.StandardLogger(),
		metrics:    metrics.NewManager(),
		cmds:       make(chan command),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run()
	return m
}

// Close terminates the actor goroutine. In-flight commands are allowed to
// finish; no new commands may be submitted afterward.
func (m *Manager) Close() {
	close(m.done)
}

type command interface {
	run(state map[string]diffalgebra.CgroupDeviceAccess, m *Manager)
}

func (m *Manager) run() {
	state := make(map[string]diffalgebra.CgroupDeviceAccess)
	for {
		select {
		case cmd := <-m.cmds:
			cmd.run(state, m)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, cmd command) {
	select {
	case m.cmds <- cmd:
	case <-ctx.Done():
	case <-m.done:
	}
}

// Configure replaces the entire device-access state for cgroup with the
// given allow/deny lists after validating that no deny entry encompasses
// an allow entry.
func (m *Manager) Configure(
	ctx context.Context,
	cgroup string,
	allow []deviceaccess.Entry,
	deny []deviceaccess.NonWildcardEntry,
) error {
	reply := make(chan error, 1)
	m.dispatch(ctx, &configureCmd{cgroup: cgroup, allow: allow, deny: deny, reply: reply})
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconfigure applies additions and removals to cgroup's existing state
// (or the empty state, if cgroup has never been configured) after
// validating that no removal encompasses an addition.
func (m *Manager) Reconfigure(
	ctx context.Context,
	cgroup string,
	additions []deviceaccess.NonWildcardEntry,
	removals []deviceaccess.NonWildcardEntry,
) error {
	reply := make(chan error, 1)
	m.dispatch(ctx, &reconfigureCmd{cgroup: cgroup, additions: additions, removals: removals, reply: reply})
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StateAll returns a value-copy snapshot of every tracked cgroup's state.
func (m *Manager) StateAll(ctx context.Context) map[string]diffalgebra.CgroupDeviceAccess {
	reply := make(chan map[string]diffalgebra.CgroupDeviceAccess, 1)
	m.dispatch(ctx, &stateAllCmd{reply: reply})
	select {
	case s := <-reply:
		return s
	case <-ctx.Done():
		return nil
	}
}

// StateOf returns a value-copy snapshot of one cgroup's state. A cgroup
// that has never been configured yields the empty CgroupDeviceAccess.
func (m *Manager) StateOf(ctx context.Context, cgroup string) diffalgebra.CgroupDeviceAccess {
	reply := make(chan diffalgebra.CgroupDeviceAccess, 1)
	m.dispatch(ctx, &stateOfCmd{cgroup: cgroup, reply: reply})
	select {
	case s := <-reply:
		return s
	case <-ctx.Done():
		return diffalgebra.CgroupDeviceAccess{}
	}
}

type configureCmd struct {
	cgroup string
	allow  []deviceaccess.Entry
	deny   []deviceaccess.NonWildcardEntry
	reply  chan error
}

func (c *configureCmd) run(state map[string]diffalgebra.CgroupDeviceAccess, m *Manager) {
	m.metrics.ConfigureTotal.Inc()
	log := m.logger.WithFields(logrus.Fields{"cgroup": c.cgroup, "op": "configure"})

	if err := policyvalidate.Configure(c.allow, c.deny); err != nil {
		log.WithError(err).Warn("rejected configure: policy conflict")
		c.reply <- err
		return
	}

	allow := make([]deviceaccess.Entry, len(c.allow))
	copy(allow, c.allow)
	next := diffalgebra.CgroupDeviceAccess{
		AllowList: allow,
		DenyList:  deviceaccess.ToEntries(c.deny),
	}
	state[c.cgroup] = next

	if err := m.commit(c.cgroup, next, log); err != nil {
		c.reply <- err
		return
	}
	c.reply <- nil
}

type reconfigureCmd struct {
	cgroup    string
	additions []deviceaccess.NonWildcardEntry
	removals  []deviceaccess.NonWildcardEntry
	reply     chan error
}

func (c *reconfigureCmd) run(state map[string]diffalgebra.CgroupDeviceAccess, m *Manager) {
	m.metrics.ReconfigureTotal.Inc()
	log := m.logger.WithFields(logrus.Fields{"cgroup": c.cgroup, "op": "reconfigure"})

	if err := policyvalidate.Reconfigure(c.additions, c.removals); err != nil {
		log.WithError(err).Warn("rejected reconfigure: policy conflict")
		c.reply <- err
		return
	}

	next := diffalgebra.ApplyDiff(state[c.cgroup], c.additions, c.removals)
	state[c.cgroup] = next

	if err := m.commit(c.cgroup, next, log); err != nil {
		c.reply <- err
		return
	}
	c.reply <- nil
}

type stateAllCmd struct {
	reply chan map[string]diffalgebra.CgroupDeviceAccess
}

func (c *stateAllCmd) run(state map[string]diffalgebra.CgroupDeviceAccess, m *Manager) {
	snapshot := make(map[string]diffalgebra.CgroupDeviceAccess, len(state))
	for k, v := range state {
		snapshot[k] = v.Clone()
	}
	c.reply <- snapshot
}

type stateOfCmd struct {
	cgroup string
	reply  chan diffalgebra.CgroupDeviceAccess
}

func (c *stateOfCmd) run(state map[string]diffalgebra.CgroupDeviceAccess, m *Manager) {
	c.reply <- state[c.cgroup].Clone()
}

// commit resolves cgroup's filesystem path and installs the new state via
// the DeviceController. Failure is returned to the caller as
// CommitFailedError but never rolls back state, which the actor loop
// already wrote before commit is called.
func (m *Manager) commit(cgroup string, next diffalgebra.CgroupDeviceAccess, log *logrus.Entry) error {
	start := time.Now()
	path, err := m.driver.Resolve(context.Background(), cgroup)
	if err != nil {
		m.metrics.CommitFailuresTotal.Inc()
		log.WithError(err).Error("failed to resolve cgroup path")
		return &CommitFailedError{Cgroup: cgroup, Err: err}
	}

	err = m.controller.Apply(path, next.AllowList, next.DenyList)
	m.metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.metrics.CommitFailuresTotal.Inc()
		log.WithError(err).Error("failed to commit device access changes")
		return &CommitFailedError{Cgroup: cgroup, Err: err}
	}

	log.WithFields(logrus.Fields{
		"allow_len": len(next.AllowList),
		"deny_len":  len(next.DenyList),
	}).Info("committed device access changes")
	return nil
}
