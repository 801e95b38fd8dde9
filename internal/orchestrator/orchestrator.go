// Package orchestrator sequences a benchmark experiment: it provisions every
// role, runs each configuration variant to completion and tears the cluster
// down again.
//
// A single goroutine drives the experiment and every remote call is
// synchronous. The context only interrupts the orchestrator's own waits.
package orchestrator

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/controller"
	"github.com/wesleyorama2/zkbench/internal/events"
	"github.com/wesleyorama2/zkbench/internal/logging"
	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/remote"
	"github.com/wesleyorama2/zkbench/internal/role"
)

// Phase names published on the event bus.
const (
	PhaseSetup    = "setup"
	PhaseStart    = "start"
	PhaseStop     = "stop"
	PhasePurge    = "purge"
	PhaseLoad     = "load"
	PhaseDestroy  = "destroy"
	PhaseTeardown = "teardown"
	PhaseCleanup  = "cleanup"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBus publishes lifecycle events on bus.
func WithBus(bus *events.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithSleeper replaces the wait used for settle, start and profile delays.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithRecorder stores the remote latency snapshot in the manifest.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithControllerOptions passes options to the load controller.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(o *Orchestrator) { o.controllerOpts = append(o.controllerOpts, opts...) }
}

// RunOptions controls Run.
type RunOptions struct {
	// Resume skips variants whose artifact is already recorded as collected
	Resume bool
}

// Orchestrator owns the four roles of an experiment.
type Orchestrator struct {
	Registry   *role.Registry
	Servers    *role.ServerContainers
	Clients    *role.ClientContainers
	Controller *controller.Controller

	pool           *remote.Pool
	experiment     config.ExperimentConfig
	bus            *events.Bus
	recorder       *metrics.Recorder
	sleep          Sleeper
	controllerOpts []controller.Option
}

// New builds every role of cfg on top of pool.
func New(cfg *config.Config, pool *remote.Pool, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		pool:       pool,
		experiment: cfg.Experiment,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}

	registry, err := role.NewRegistry(cfg, pool)
	if err != nil {
		return nil, err
	}
	endpoint := registry.Endpoint()
	o.Registry = registry
	o.Servers = role.NewServerContainers(cfg, endpoint, pool)
	o.Clients = role.NewClientContainers(cfg, endpoint, pool)
	o.Controller = controller.New(cfg, endpoint, pool, o.controllerOpts...)
	return o, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// wait sleeps for d; a zero delay only checks for cancellation.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return o.sleep(ctx, d)
}

// abortOnFailure runs one role operation. Command failures are logged and
// tolerated; anything else is returned.
func (o *Orchestrator) abortOnFailure(phase, roleName string, fn func() error) error {
	o.bus.Publish(events.NewPhaseStartedEvent(phase, roleName))
	err := fn()
	fatal := remote.IgnoreCommandErrors(err)
	if fatal != nil {
		wrapped := errors.Wrapf(fatal, "%s %s", phase, roleName)
		logging.WithStacktrace(log.WithFields(log.Fields{"phase": phase, "role": roleName}), wrapped).Error("phase failed")
		o.bus.Publish(events.NewPhaseFailedEvent(phase, roleName, fatal))
		return wrapped
	}
	if err != nil {
		log.WithFields(log.Fields{"phase": phase, "role": roleName}).WithError(err).Warn("remote command failed")
	}
	o.bus.Publish(events.NewPhaseFinishedEvent(phase, roleName, err))
	return nil
}

// SetupAll provisions the registry, waits the settle delay, then provisions
// the containers and the controller.
func (o *Orchestrator) SetupAll(ctx context.Context) error {
	log.Info("provisioning registry...")
	if err := o.abortOnFailure(PhaseSetup, o.Registry.Name(), o.Registry.Provision); err != nil {
		return err
	}
	if err := o.wait(ctx, o.experiment.SettleDelay.Std()); err != nil {
		return err
	}
	log.Info("provisioning server containers...")
	if err := o.abortOnFailure(PhaseSetup, o.Servers.Name(), o.Servers.Provision); err != nil {
		return err
	}
	log.Info("provisioning client containers...")
	if err := o.abortOnFailure(PhaseSetup, o.Clients.Name(), o.Clients.Provision); err != nil {
		return err
	}
	log.Info("provisioning load manager...")
	return o.abortOnFailure(PhaseSetup, o.Controller.Name(), o.Controller.Provision)
}

// StartAll starts the registry, the server containers with the variant
// options and the client containers.
func (o *Orchestrator) StartAll(ctx context.Context, v Variant) error {
	steps := []struct {
		r    role.Role
		opts []string
	}{
		{o.Registry, nil},
		{o.Servers, v.Options()},
		{o.Clients, nil},
	}
	for i, s := range steps {
		if i > 0 {
			if err := o.wait(ctx, o.experiment.StartDelay.Std()); err != nil {
				return err
			}
		}
		r, opts := s.r, s.opts
		log.WithField("variant", v.Label()).Infof("starting %s...", r.Name())
		if err := o.abortOnFailure(PhaseStart, r.Name(), func() error { return r.Start(opts) }); err != nil {
			return err
		}
	}
	return nil
}

// continueOnFailure runs one role operation and reports non-command failures
// without stopping the caller.
func (o *Orchestrator) continueOnFailure(phase, roleName string, fn func() error) error {
	o.bus.Publish(events.NewPhaseStartedEvent(phase, roleName))
	err := fn()
	if err != nil {
		log.WithFields(log.Fields{"phase": phase, "role": roleName}).WithError(err).Warn("phase reported errors")
	}
	o.bus.Publish(events.NewPhaseFinishedEvent(phase, roleName, err))
	if fatal := remote.IgnoreCommandErrors(err); fatal != nil {
		return errors.Wrapf(fatal, "%s %s", phase, roleName)
	}
	return nil
}

// StopAll stops the client containers, the server containers and the
// registry. Every role is attempted.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	var result *multierror.Error
	for _, r := range []role.Role{o.Clients, o.Servers, o.Registry} {
		log.Infof("stopping %s...", r.Name())
		if err := o.continueOnFailure(PhaseStop, r.Name(), r.Stop); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// PurgeData wipes registry and server container data between variants.
func (o *Orchestrator) PurgeData(ctx context.Context) error {
	var result *multierror.Error
	for _, r := range []role.Purger{o.Registry, o.Servers} {
		if err := o.continueOnFailure(PhasePurge, r.Name(), r.PurgeData); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RunVariant runs one variant end to end. A missing artifact is recorded, not
// returned; the returned error aborts the matrix.
func (o *Orchestrator) RunVariant(ctx context.Context, v Variant) (*RunRecord, error) {
	label := v.Label()
	logger := log.WithField("variant", label)
	record := &RunRecord{Label: label, Variant: v, Started: time.Now()}
	defer func() { record.Duration = time.Since(record.Started) }()

	logger.Infof("BENCH: %s", label)
	logger.Infof("config: props=%v reqsz=%d servers=%d clients=%d",
		v.Options(), v.RequestSize, o.experiment.Servers, o.experiment.Clients)

	fail := func(err error) (*RunRecord, error) {
		record.Error = err.Error()
		return record, err
	}

	if err := o.StartAll(ctx, v); err != nil {
		return fail(err)
	}

	var wait time.Duration
	err := o.abortOnFailure(PhaseLoad, controller.Name, func() error {
		d, err := o.Controller.GenerateProfile(o.experiment.StepDuration.Std(), label, o.experiment.Samples)
		wait = d
		return err
	})
	if err != nil {
		return fail(err)
	}

	logger.Info("starting load manager...")
	err = o.abortOnFailure(PhaseLoad, controller.Name, func() error {
		return o.Controller.Start(v.Options(), o.experiment.Servers, o.experiment.Clients, v.RequestSize)
	})
	if err != nil {
		return fail(err)
	}

	logger.Infof("waiting %s...", wait)
	if err := o.wait(ctx, wait); err != nil {
		return fail(err)
	}

	logger.Info("pulling bench data...")
	artifact, err := o.Controller.Collect(label)
	if err != nil {
		logger.WithError(err).Warn("bench data not collected")
		o.bus.Publish(events.NewArtifactMissingEvent(label, err))
		record.Error = err.Error()
		if !remote.IsTransferError(err) && !remote.IsConnectionError(err) {
			return record, err
		}
	} else {
		record.Artifact = artifact
		record.Collected = true
		o.bus.Publish(events.NewArtifactCollectedEvent(label, artifact))
	}

	logger.Info("stopping load manager...")
	var result *multierror.Error
	if err := o.continueOnFailure(PhaseStop, controller.Name, o.Controller.Stop); err != nil {
		result = multierror.Append(result, err)
	}
	if err := o.StopAll(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	logger.Info("deleting data...")
	if err := o.PurgeData(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return fail(err)
	}
	return record, nil
}

// Run provisions the cluster, runs every variant in order and tears the
// cluster down. The manifest in the results directory is rewritten after each
// variant. A failing variant aborts the remaining ones; teardown still runs.
func (o *Orchestrator) Run(ctx context.Context, variants []Variant, opts RunOptions) (*Manifest, error) {
	manifest := &Manifest{}
	done := map[string]bool{}
	if opts.Resume {
		m, data, err := ReadManifest(o.experiment.ResultsDir)
		if err != nil {
			return nil, err
		}
		manifest = m
		done = CollectedLabels(data)
		log.Infof("resuming: %d variants already collected", len(done))
	}
	manifest.Started = time.Now()
	manifest.Finished = time.Time{}

	var runErr error
	if err := o.SetupAll(ctx); err != nil {
		runErr = err
	} else {
		runErr = o.runVariants(ctx, variants, done, manifest)
	}

	// teardown must run even if ctx was cancelled
	if err := o.teardown(context.Background(), PhaseTeardown); err != nil {
		logging.WithStacktrace(log.WithField("phase", PhaseTeardown), err).Error("teardown reported errors")
		if runErr == nil {
			runErr = err
		}
	}

	manifest.Finished = time.Now()
	if o.recorder != nil {
		manifest.Metrics = o.recorder.Snapshot()
	}
	if err := manifest.Save(o.experiment.ResultsDir); err != nil && runErr == nil {
		runErr = err
	}
	return manifest, runErr
}

func (o *Orchestrator) runVariants(ctx context.Context, variants []Variant, done map[string]bool, manifest *Manifest) error {
	for i, v := range variants {
		label := v.Label()
		if done[label] {
			log.WithField("variant", label).Info("already collected, skipping")
			o.bus.Publish(events.NewVariantSkippedEvent(label))
			continue
		}

		o.bus.Publish(events.NewVariantStartedEvent(label, i+1, len(variants)))
		record, err := o.RunVariant(ctx, v)
		o.bus.Publish(events.NewVariantFinishedEvent(label, record.Duration, err))

		manifest.Record(*record)
		if serr := manifest.Save(o.experiment.ResultsDir); serr != nil {
			log.WithError(serr).Warn("manifest not saved")
		}
		if err != nil {
			return errors.Wrapf(err, "variant %s", label)
		}
	}
	return nil
}

// Teardown stops every role, destroys every working directory and closes
// every session.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	return o.teardown(ctx, PhaseTeardown)
}

// Cleanup stops and destroys everything without running an experiment.
func (o *Orchestrator) Cleanup(ctx context.Context) error {
	return o.teardown(ctx, PhaseCleanup)
}

func (o *Orchestrator) teardown(ctx context.Context, phase string) error {
	log.Infof("%s: stopping and destroying all roles...", phase)
	o.bus.Publish(events.NewPhaseStartedEvent(phase, ""))

	var result *multierror.Error
	if err := o.StopAll(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := o.continueOnFailure(PhaseStop, controller.Name, o.Controller.Stop); err != nil {
		result = multierror.Append(result, err)
	}

	destroyers := []role.Role{o.Clients, o.Servers, o.Registry}
	for _, r := range destroyers {
		if err := o.continueOnFailure(PhaseDestroy, r.Name(), r.Destroy); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := o.continueOnFailure(PhaseDestroy, controller.Name, o.Controller.Destroy); err != nil {
		result = multierror.Append(result, err)
	}

	if err := o.pool.CloseAll(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "close sessions"))
	}

	err := result.ErrorOrNil()
	o.bus.Publish(events.NewPhaseFinishedEvent(phase, "", err))
	return err
}
