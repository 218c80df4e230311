package services

import (
	"context"
	"eld-trip-service/internal/domain"
	"eld-trip-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// TripRunner executes trip calculations in the background.
//
// Each run loads the trip, marks it processing, runs PlanTrip from scratch and
// stores either the result or the failure. At most maxConcurrent runs execute at once.
type TripRunner struct {
	Repo     ports.TripRepository
	Provider ports.RouteProvider
	Notifier ports.ProgressNotifier
	// Defaults for the log sheet header; StartDate and ShippingDoc are set per trip.
	Sheet LogSheetInfo
	Rules *HOSRules
	Now   func() time.Time

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewTripRunner(
	repo ports.TripRepository,
	provider ports.RouteProvider,
	notifier ports.ProgressNotifier,
	sheet LogSheetInfo,
	maxConcurrent int,
) *TripRunner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &TripRunner{
		Repo:     repo,
		Provider: provider,
		Notifier: notifier,
		Sheet:    sheet,
		Now:      time.Now,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Submit starts a run in its own goroutine. Failures are stored on the trip and logged.
func (r *TripRunner) Submit(ctx context.Context, tripID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Run(ctx, tripID); err != nil {
			log.Printf("trip run failed: trip_id=%s err=%v", tripID, err)
		}
	}()
}

// Wait blocks until every submitted run has returned.
func (r *TripRunner) Wait() { r.wg.Wait() }

// Run calculates one trip synchronously.
func (r *TripRunner) Run(ctx context.Context, tripID string) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("run trip %s: wait for slot: %w", tripID, err)
	}
	defer r.sem.Release(1)

	trip, err := r.Repo.Get(ctx, tripID)
	if err != nil {
		return fmt.Errorf("run trip %s: load: %w", tripID, err)
	}

	trip.Start(r.Now())
	if err := r.Repo.Update(ctx, trip); err != nil {
		return fmt.Errorf("run trip %s: mark processing: %w", tripID, err)
	}
	r.publish(ctx, domain.ProgressUpdate{
		TripID:   tripID,
		Stage:    domain.StageTripCalculation,
		Status:   domain.TripProcessing,
		Progress: trip.Progress,
		Message:  "Starting trip calculation...",
	})

	log.Printf("trip run started: trip_id=%s cycle_used=%.2f", tripID, trip.CurrentCycleUsed)

	sheet := r.Sheet
	sheet.StartDate = trip.CreatedAt
	sheet.ShippingDoc = "BOL-" + trip.ID

	result, planErr := PlanTrip(ctx, PlanTripRequest{
		TripID:          trip.ID,
		CurrentLocation: trip.CurrentLocation,
		PickupLocation:  trip.PickupLocation,
		DropoffLocation: trip.DropoffLocation,
		CycleUsed:       trip.CurrentCycleUsed,
		Sheet:           sheet,
		Rules:           r.Rules,
	}, r.Provider, r.Notifier)

	if planErr != nil {
		trip.Fail(planErr, r.Now())
		// Store the failure even if the caller's context is already gone.
		if err := r.Repo.Update(context.WithoutCancel(ctx), trip); err != nil {
			return errors.Join(planErr, fmt.Errorf("run trip %s: store failure: %w", tripID, err))
		}
		r.publish(ctx, domain.ProgressUpdate{
			TripID:  tripID,
			Stage:   domain.StageFailed,
			Status:  domain.TripFailed,
			Message: "Trip calculation failed: " + planErr.Error(),
			Error:   planErr.Error(),
		})
		return fmt.Errorf("run trip %s: %w", tripID, planErr)
	}

	trip.Complete(result, r.Now())
	if err := r.Repo.Update(ctx, trip); err != nil {
		return fmt.Errorf("run trip %s: store result: %w", tripID, err)
	}

	numDays := len(result.Logs)
	r.publish(ctx, domain.ProgressUpdate{
		TripID:           tripID,
		Stage:            domain.StageCompleted,
		Status:           domain.TripCompleted,
		Progress:         100,
		Message:          "Trip calculation completed!",
		TotalDistance:    trip.TotalDistance,
		TotalDrivingTime: trip.TotalDrivingTime,
		NumDays:          &numDays,
	})

	log.Printf(
		"trip run completed: trip_id=%s miles=%.2f driving_hours=%.2f days=%d",
		tripID, result.TotalDistance, result.TotalDrivingTime, numDays,
	)

	return nil
}

func (r *TripRunner) publish(ctx context.Context, u domain.ProgressUpdate) {
	if r.Notifier == nil {
		return
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = r.Now()
	}
	r.Notifier.Publish(ctx, u)
}
