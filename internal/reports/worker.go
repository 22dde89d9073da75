package reports

import (
	"context"
	"errors"
	"log"

	"github.com/triagehub/triagehub/internal/database"
)

// Notifier is told when a report draft lands. Implementations must not
// block report generation; failures are theirs to log.
type Notifier interface {
	ReportDrafted(ctx context.Context, report *database.IncidentReport)
}

// Worker consumes report jobs from the queue and runs the synthesizer.
// A failed generation is re-enqueued until the attempt cap; a job for a
// brand that is no longer (or never was) affected is dropped.
type Worker struct {
	queue       Queue
	synthesizer *Synthesizer
	notifier    Notifier
	maxAttempts int
}

// NewWorker creates a report generation worker
func NewWorker(queue Queue, synthesizer *Synthesizer, notifier Notifier, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Worker{
		queue:       queue,
		synthesizer: synthesizer,
		notifier:    notifier,
		maxAttempts: maxAttempts,
	}
}

// Run processes jobs until the context is cancelled or the queue closes
func (w *Worker) Run(ctx context.Context) {
	log.Println("Report worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				log.Println("Report worker stopped")
				return
			}
			log.Printf("Report worker dequeue error: %v", err)
			continue
		}
		w.process(ctx, *job)
	}
}

// ProcessOne runs a single job synchronously (used by tests)
func (w *Worker) ProcessOne(ctx context.Context, job ReportJob) {
	w.process(ctx, job)
}

func (w *Worker) process(ctx context.Context, job ReportJob) {
	report, err := w.synthesizer.Generate(ctx, job.IssueUUID, job.BrandID)
	if err == nil {
		log.Printf("Generated incident report %s for issue %s, brand %s",
			report.UUID, job.IssueUUID, job.BrandID)
		if w.notifier != nil {
			w.notifier.ReportDrafted(ctx, report)
		}
		return
	}

	if errors.Is(err, ErrBrandNotAffected) {
		log.Printf("Dropping report job for issue %s, brand %s: %v", job.IssueUUID, job.BrandID, err)
		return
	}

	job.Attempt++
	if job.Attempt >= w.maxAttempts {
		log.Printf("Giving up on report for issue %s, brand %s after %d attempts: %v",
			job.IssueUUID, job.BrandID, job.Attempt, err)
		return
	}

	log.Printf("Report generation failed for issue %s, brand %s (attempt %d), re-enqueueing: %v",
		job.IssueUUID, job.BrandID, job.Attempt, err)
	if enqErr := w.queue.Enqueue(ctx, job); enqErr != nil {
		log.Printf("Failed to re-enqueue report job: %v", enqErr)
	}
}
