package workers

import (
	"context"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"squadbase/services"
)

const (
	jobPointsReconcile = "squad_points_reconcile"
	jobMembershipSweep = "membership_sweep"
	jobInvalidInvites  = "invalid_invite_sweep"
)

// Reconciler schedules the background correction sweeps. Each job runs
// under a lease lock so a multi-instance deployment executes it once per
// tick.
type Reconciler struct {
	squads *services.Squads
	locks  LockStore
	log    *zap.Logger
	sched  gocron.Scheduler
	// holder identifies this process in lease documents.
	holder string
}

func NewReconciler(squads *services.Squads, locks LockStore, log *zap.Logger) (*Reconciler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	host, _ := os.Hostname()
	return &Reconciler{
		squads: squads,
		locks:  locks,
		log:    log,
		sched:  sched,
		holder: host + ":" + uuid.NewString(),
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (r *Reconciler) Start() error {
	jobs := []struct {
		name  string
		every time.Duration
		ttl   time.Duration
		run   func(context.Context)
	}{
		{jobPointsReconcile, 15 * time.Minute, 10 * time.Minute, r.runPointsReconcile},
		{jobMembershipSweep, time.Hour, 10 * time.Minute, r.runMembershipSweep},
		{jobInvalidInvites, 6 * time.Hour, 10 * time.Minute, r.runInvalidInviteSweep},
	}
	for _, j := range jobs {
		j := j
		_, err := r.sched.NewJob(
			gocron.DurationJob(j.every),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), j.ttl)
				defer cancel()
				withLock(ctx, r.locks, r.log, j.name, r.holder, j.ttl, j.run)
			}),
		)
		if err != nil {
			return err
		}
	}
	r.sched.Start()
	r.log.Info("reconciliation jobs scheduled")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (r *Reconciler) Stop() error {
	return r.sched.Shutdown()
}

// RunAll executes every sweep once, in order. Admin trigger path; no
// locks so an operator-requested run always executes.
func (r *Reconciler) RunAll(ctx context.Context) {
	r.runPointsReconcile(ctx)
	r.runMembershipSweep(ctx)
	r.runInvalidInviteSweep(ctx)
}

func (r *Reconciler) runPointsReconcile(ctx context.Context) {
	n, err := r.squads.ReconcilePoints(ctx)
	if err != nil {
		r.log.Error("squad points reconcile failed", zap.Error(err))
		return
	}
	r.log.Info("squad points reconcile complete", zap.Int("corrected", n))
}

func (r *Reconciler) runMembershipSweep(ctx context.Context) {
	n, err := r.squads.SweepMemberships(ctx)
	if err != nil {
		r.log.Error("membership sweep failed", zap.Error(err))
		return
	}
	r.log.Info("membership sweep complete", zap.Int("repaired", n))
}

func (r *Reconciler) runInvalidInviteSweep(ctx context.Context) {
	n, err := r.squads.SweepInvalidInvites(ctx)
	if err != nil {
		r.log.Error("invalid invite sweep failed", zap.Error(err))
		return
	}
	r.log.Info("invalid invite sweep complete", zap.Int("marked", n))
}
